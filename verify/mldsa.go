// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa44"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/cloudflare/circl/sign/mldsa/mldsa87"
	"github.com/dark-bio/x509-go/x509"
)

// mldsaScheme is one of the ML-DSA parameter sets.
type mldsaScheme struct {
	name          string
	publicKeySize int
	signatureSize int
	verify        func(key, message, ctx, signature []byte) (bool, error)
}

var (
	mldsa44Scheme = mldsaScheme{
		name:          "ML-DSA-44",
		publicKeySize: mldsa44.PublicKeySize,
		signatureSize: mldsa44.SignatureSize,
		verify: func(key, message, ctx, signature []byte) (bool, error) {
			pub := new(mldsa44.PublicKey)
			if err := pub.UnmarshalBinary(key); err != nil {
				return false, err
			}
			return mldsa44.Verify(pub, message, ctx, signature), nil
		},
	}
	mldsa65Scheme = mldsaScheme{
		name:          "ML-DSA-65",
		publicKeySize: mldsa65.PublicKeySize,
		signatureSize: mldsa65.SignatureSize,
		verify: func(key, message, ctx, signature []byte) (bool, error) {
			pub := new(mldsa65.PublicKey)
			if err := pub.UnmarshalBinary(key); err != nil {
				return false, err
			}
			return mldsa65.Verify(pub, message, ctx, signature), nil
		},
	}
	mldsa87Scheme = mldsaScheme{
		name:          "ML-DSA-87",
		publicKeySize: mldsa87.PublicKeySize,
		signatureSize: mldsa87.SignatureSize,
		verify: func(key, message, ctx, signature []byte) (bool, error) {
			pub := new(mldsa87.PublicKey)
			if err := pub.UnmarshalBinary(key); err != nil {
				return false, err
			}
			return mldsa87.Verify(pub, message, ctx, signature), nil
		},
	}
)

// check verifies a signature with an optional context string.
func (s mldsaScheme) check(key, message, ctx, signature []byte) error {
	if len(key) != s.publicKeySize {
		return fmt.Errorf("%w: %s key is %d bytes, want %d", ErrInvalidKey, s.name, len(key), s.publicKeySize)
	}
	if len(signature) != s.signatureSize {
		return fmt.Errorf("%w: %s signature is %d bytes, want %d", ErrInvalidSignature, s.name, len(signature), s.signatureSize)
	}
	ok, err := s.verify(key, message, ctx, signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, s.name)
	}
	return nil
}

// verifyMLDSA creates a pure ML-DSA verifier with an empty context. The key
// and signature algorithms share the identifier.
//
// https://datatracker.ietf.org/doc/html/draft-ietf-lamps-dilithium-certificates
func verifyMLDSA(s mldsaScheme) Func {
	return func(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
		if len(alg.Parameters) != 0 {
			return fmt.Errorf("%w: %s parameters must be absent", ErrInvalidSignature, s.name)
		}
		if err := checkKey(key, alg.Algorithm.String()); err != nil {
			return err
		}
		raw, err := keyBytes(key, 0)
		if err != nil {
			return err
		}
		return s.check(raw, signed, nil, signature)
	}
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/dark-bio/x509-go/x509"
)

const (
	// CompositePrefix is the byte encoding of "CompositeAlgorithmSignatures2025"
	// per the IETF composite signature draft.
	CompositePrefix = "CompositeAlgorithmSignatures2025"

	// CompositeDomain is the signature label for MLDSA65-Ed25519-SHA512.
	CompositeDomain = "COMPSIG-MLDSA65-Ed25519-SHA512"

	// CompositePublicKeySize is ML-DSA-65 (1952 bytes) || Ed25519 (32 bytes).
	CompositePublicKeySize = mldsa65.PublicKeySize + ed25519.PublicKeySize

	// CompositeSignatureSize is ML-DSA-65 (3309 bytes) || Ed25519 (64 bytes).
	CompositeSignatureSize = mldsa65.SignatureSize + ed25519.SignatureSize
)

// CompositeMessage builds the message both component algorithms sign:
//
//	M' = Prefix || Label || len(ctx) || ctx || SHA512(M)
//
// with an empty context.
func CompositeMessage(message []byte) []byte {
	prehash := sha512.Sum512(message)

	out := make([]byte, 0, len(CompositePrefix)+len(CompositeDomain)+1+sha512.Size)
	out = append(out, CompositePrefix...)
	out = append(out, CompositeDomain...)
	out = append(out, 0)
	out = append(out, prehash[:]...)
	return out
}

// verifyComposite checks an MLDSA65-Ed25519-SHA512 signature. Both component
// signatures must hold.
//
// https://datatracker.ietf.org/doc/html/draft-ietf-lamps-pq-composite-sigs
func verifyComposite(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
	if len(alg.Parameters) != 0 {
		return fmt.Errorf("%w: composite parameters must be absent", ErrInvalidSignature)
	}
	if err := checkKey(key, x509.OIDSignatureMLDSA65Ed25519.String()); err != nil {
		return err
	}
	raw, err := keyBytes(key, CompositePublicKeySize)
	if err != nil {
		return err
	}
	if len(signature) != CompositeSignatureSize {
		return fmt.Errorf("%w: composite signature is %d bytes", ErrInvalidSignature, len(signature))
	}
	mlKey, edKey := raw[:mldsa65.PublicKeySize], raw[mldsa65.PublicKeySize:]
	if _, err := new(edwards25519.Point).SetBytes(edKey); err != nil {
		return fmt.Errorf("%w: not an Ed25519 curve point", ErrInvalidKey)
	}
	mPrime := CompositeMessage(signed)

	if err := mldsa65Scheme.check(mlKey, mPrime, []byte(CompositeDomain), signature[:mldsa65.SignatureSize]); err != nil {
		return err
	}
	if !ed25519.Verify(edKey, mPrime, signature[mldsa65.SignatureSize:]) {
		return fmt.Errorf("%w: Ed25519 component", ErrInvalidSignature)
	}
	return nil
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	stdx509 "crypto/x509"
	"fmt"

	"github.com/dark-bio/x509-go/x509"
)

// hashFunc describes the digest of a classical signature scheme.
type hashFunc struct {
	hash crypto.Hash
}

var (
	sha1Hash   = hashFunc{crypto.SHA1}
	sha256Hash = hashFunc{crypto.SHA256}
	sha384Hash = hashFunc{crypto.SHA384}
	sha512Hash = hashFunc{crypto.SHA512}
)

// sum hashes the message.
func (h hashFunc) sum(message []byte) []byte {
	hasher := h.hash.New()
	hasher.Write(message)
	return hasher.Sum(nil)
}

// verifyRSA creates an RSA PKCS#1 v1.5 verifier for the given digest.
//
// https://datatracker.ietf.org/doc/html/rfc8017
func verifyRSA(h hashFunc) Func {
	return func(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
		if err := checkKey(key, x509.OIDPublicKeyRSA.String()); err != nil {
			return err
		}
		parsed, err := stdx509.ParsePKIXPublicKey(key.Raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		pub, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: not an RSA public key", ErrInvalidKey)
		}
		if err := rsa.VerifyPKCS1v15(pub, h.hash, h.sum(signed), signature); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
		return nil
	}
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/dark-bio/x509-go/x509"
)

// verifyEd25519 checks a pure Ed25519 signature.
//
// https://datatracker.ietf.org/doc/html/rfc8410
func verifyEd25519(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
	if len(alg.Parameters) != 0 {
		return fmt.Errorf("%w: Ed25519 parameters must be absent", ErrInvalidSignature)
	}
	if err := checkKey(key, x509.OIDSignatureEd25519.String()); err != nil {
		return err
	}
	pub, err := parseEd25519(key)
	if err != nil {
		return err
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes", ErrInvalidSignature, len(signature))
	}
	if !ed25519.Verify(pub, signed, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// parseEd25519 extracts an Ed25519 public key from an SPKI, rejecting bytes
// that do not decode to a curve point.
func parseEd25519(key *x509.PublicKeyInfo) (ed25519.PublicKey, error) {
	raw, err := keyBytes(key, ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: not an Ed25519 curve point", ErrInvalidKey)
	}
	return ed25519.PublicKey(raw), nil
}

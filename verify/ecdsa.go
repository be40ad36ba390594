// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"crypto/ecdsa"
	stdx509 "crypto/x509"
	"fmt"

	"github.com/dark-bio/x509-go/x509"
)

// verifyECDSA creates an ECDSA verifier for the given digest. The signature
// is the DER encoded SEQUENCE { r, s }.
func verifyECDSA(h hashFunc) Func {
	return func(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
		if err := checkKey(key, x509.OIDPublicKeyECDSA.String()); err != nil {
			return err
		}
		parsed, err := stdx509.ParsePKIXPublicKey(key.Raw)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		pub, ok := parsed.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: not an ECDSA public key", ErrInvalidKey)
		}
		if !ecdsa.VerifyASN1(pub, h.sum(signed), signature) {
			return ErrInvalidSignature
		}
		return nil
	}
}

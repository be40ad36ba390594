// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"errors"
	"fmt"
)

const opVerifySignature = "verify signature"

// SignatureVerifier is the capability checking a signature over a blob of
// signed bytes. Implementations return nil on success, an error matching
// ErrUnsupportedAlgorithm if the signature or key algorithm is unknown to
// them, or any other error if the check fails.
type SignatureVerifier interface {
	VerifySignature(alg AlgorithmIdentifier, key *PublicKeyInfo, signed, signature []byte) error
}

// VerifySignature runs a signature check through the verifier and classifies
// the outcome: nil if accepted, otherwise a *CertificateError of kind
// UnsupportedAlgorithm or SignatureInvalid.
//
// The signed bytes must be the original encoding the signature was made over,
// never a re-serialisation of decoded values.
func VerifySignature(v SignatureVerifier, alg AlgorithmIdentifier, key *PublicKeyInfo, signed []byte, signature asn1.BitString) error {
	if v == nil {
		return &CertificateError{Kind: UnsupportedAlgorithm, Op: opVerifySignature, Err: errors.New("no signature verifier")}
	}
	if key == nil {
		return &CertificateError{Kind: SignatureInvalid, Op: opVerifySignature, Err: errors.New("no public key")}
	}
	if signature.BitLength%8 != 0 {
		return &CertificateError{Kind: SignatureInvalid, Op: opVerifySignature, Err: errUnalignedBits}
	}
	err := v.VerifySignature(alg, key, signed, signature.Bytes)
	if err == nil {
		return nil
	}
	var certErr *CertificateError
	if errors.As(err, &certErr) && (certErr.Kind == UnsupportedAlgorithm || certErr.Kind == SignatureInvalid) {
		return err
	}
	kind := SignatureInvalid
	if errors.Is(err, ErrUnsupportedAlgorithm) {
		kind = UnsupportedAlgorithm
	}
	return &CertificateError{
		Kind: kind,
		Op:   fmt.Sprintf("%s %s", opVerifySignature, alg.Name()),
		Err:  err,
	}
}

// CheckSignature verifies the certificate signature over the original TBS
// bytes with the given issuer key.
func (c *Certificate) CheckSignature(v SignatureVerifier, issuerKey *PublicKeyInfo) error {
	return VerifySignature(v, c.sigAlg, issuerKey, c.rawTBS, c.signature)
}

// CheckSignatureFrom verifies that the certificate was signed by the issuer
// certificate's key. Only the signature is checked, not the chain.
func (c *Certificate) CheckSignatureFrom(v SignatureVerifier, issuer *Certificate) error {
	if issuer == nil {
		return VerifySignature(v, c.sigAlg, nil, c.rawTBS, c.signature)
	}
	return VerifySignature(v, c.sigAlg, issuer.publicKey, c.rawTBS, c.signature)
}

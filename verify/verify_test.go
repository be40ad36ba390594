// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify_test

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"testing"
	"time"

	"filippo.io/edwards25519"
	"github.com/dark-bio/x509-go/internal/asn1ext"
	"github.com/dark-bio/x509-go/internal/certbuild"
	"github.com/dark-bio/x509-go/verify"
	"github.com/dark-bio/x509-go/x509"
)

// selfSigned creates and decodes a self-signed certificate.
func selfSigned(t *testing.T, signer certbuild.Signer) *x509.Certificate {
	t.Helper()

	der, err := certbuild.New(signer, &certbuild.Params{
		Issuer:    pkix.Name{CommonName: "Test Root"},
		Subject:   pkix.Name{CommonName: "Test Root"},
		NotBefore: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:  time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	cert, err := x509.Parse(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	return cert
}

// TestVerifyAlgorithms tests that every built-in algorithm accepts a genuine
// signature and rejects a tampered one.
func TestVerifyAlgorithms(t *testing.T) {
	var mlSeed [32]byte
	var xSeed [64]byte
	for i := range xSeed {
		xSeed[i] = byte(i)
	}
	tests := []struct {
		name   string
		signer certbuild.Signer
	}{
		{"ed25519", certbuild.GenerateEd25519()},
		{"ecdsa", certbuild.GenerateECDSA()},
		{"rsa", certbuild.GenerateRSA()},
		{"mldsa", certbuild.NewMLDSA(mlSeed)},
		{"composite", certbuild.NewComposite(xSeed)},
	}
	registry := verify.New()
	for _, tt := range tests {
		cert := selfSigned(t, tt.signer)

		if err := cert.CheckSignature(registry, cert.PublicKey()); err != nil {
			t.Errorf("%s: genuine signature rejected: %v", tt.name, err)
		}
		sig := cert.Signature()
		sig[len(sig)/2] ^= 0x01

		err := x509.VerifySignature(registry, cert.SignatureAlgorithm(), cert.PublicKey(), cert.RawTBSCertificate(),
			asn1.BitString{Bytes: sig, BitLength: len(sig) * 8})
		if !errors.Is(err, x509.ErrSignatureInvalid) {
			t.Errorf("%s: tampered signature: have %v, want %v", tt.name, err, x509.ErrSignatureInvalid)
		}
		tbs := cert.RawTBSCertificate()
		tbs[len(tbs)-1] ^= 0x80

		err = x509.VerifySignature(registry, cert.SignatureAlgorithm(), cert.PublicKey(), tbs,
			asn1.BitString{Bytes: cert.Signature(), BitLength: len(cert.Signature()) * 8})
		if !errors.Is(err, x509.ErrSignatureInvalid) {
			t.Errorf("%s: tampered message: have %v, want %v", tt.name, err, x509.ErrSignatureInvalid)
		}
	}
}

// unknownSigner signs with Ed25519 but claims an unregistered algorithm.
type unknownSigner struct {
	*certbuild.Ed25519Signer
}

func (s unknownSigner) Algorithm() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 3, 4}}
}

// TestVerifyUnknownAlgorithm tests that unregistered signature algorithms are
// reported as unsupported, not as invalid.
func TestVerifyUnknownAlgorithm(t *testing.T) {
	cert := selfSigned(t, unknownSigner{certbuild.GenerateEd25519()})

	err := cert.CheckSignature(verify.New(), cert.PublicKey())
	if !errors.Is(err, x509.ErrUnsupportedAlgorithm) {
		t.Fatalf("have %v, want %v", err, x509.ErrUnsupportedAlgorithm)
	}
	if !errors.Is(err, verify.ErrUnknownAlgorithm) {
		t.Fatalf("cause lost: %v", err)
	}
}

// TestVerifyKeyMismatch tests that a known key of the wrong type is a failed
// check, whereas an unknown key type is unsupported.
func TestVerifyKeyMismatch(t *testing.T) {
	cert := selfSigned(t, certbuild.GenerateEd25519())

	other, err := x509.ParsePublicKeyInfo(certbuild.GenerateECDSA().PublicKeyInfo())
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	if err := cert.CheckSignature(verify.New(), other); !errors.Is(err, x509.ErrSignatureInvalid) {
		t.Errorf("mismatched key: have %v, want %v", err, x509.ErrSignatureInvalid)
	}
	unknown, err := x509.ParsePublicKeyInfo(asn1ext.MarshalSubjectPublicKeyInfo(asn1.ObjectIdentifier{1, 2, 3}, make([]byte, 32)))
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	if err := cert.CheckSignature(verify.New(), unknown); !errors.Is(err, x509.ErrUnsupportedAlgorithm) {
		t.Errorf("unknown key: have %v, want %v", err, x509.ErrUnsupportedAlgorithm)
	}
}

// TestVerifyInvalidPoint tests that Ed25519 keys not on the curve are rejected
// before the signature is checked.
func TestVerifyInvalidPoint(t *testing.T) {
	cert := selfSigned(t, certbuild.GenerateEd25519())

	var bad []byte
	for i := 0; i < 256 && bad == nil; i++ {
		candidate := make([]byte, 32)
		candidate[0] = byte(i)
		if _, err := new(edwards25519.Point).SetBytes(candidate); err != nil {
			bad = candidate
		}
	}
	if bad == nil {
		t.Fatalf("no invalid point candidate found")
	}
	key, err := x509.ParsePublicKeyInfo(asn1ext.MarshalSubjectPublicKeyInfo(x509.OIDSignatureEd25519, bad))
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	err = cert.CheckSignature(verify.New(), key)
	if !errors.Is(err, verify.ErrInvalidKey) {
		t.Fatalf("have %v, want %v", err, verify.ErrInvalidKey)
	}
	if !errors.Is(err, x509.ErrSignatureInvalid) {
		t.Fatalf("have %v, want %v", err, x509.ErrSignatureInvalid)
	}
}

// TestRegister tests that custom verifiers can be plugged in and override the
// built-in ones.
func TestRegister(t *testing.T) {
	cert := selfSigned(t, unknownSigner{certbuild.GenerateEd25519()})

	registry := verify.New()
	if registry.Supports("1.2.3.4") {
		t.Fatalf("unexpected support for 1.2.3.4")
	}
	var called bool
	registry.Register("1.2.3.4", func(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
		called = true
		return nil
	})
	if err := cert.CheckSignature(registry, cert.PublicKey()); err != nil {
		t.Fatalf("custom verifier rejected: %v", err)
	}
	if !called {
		t.Fatalf("custom verifier not invoked")
	}
}

// TestCompositeMessage tests the layout of the composite signing pre-image.
func TestCompositeMessage(t *testing.T) {
	msg := verify.CompositeMessage([]byte("hello"))

	want := len(verify.CompositePrefix) + len(verify.CompositeDomain) + 1 + 64
	if len(msg) != want {
		t.Fatalf("length mismatch: have %d, want %d", len(msg), want)
	}
	if string(msg[:len(verify.CompositePrefix)]) != verify.CompositePrefix {
		t.Fatalf("prefix mismatch")
	}
	if msg[len(verify.CompositePrefix)+len(verify.CompositeDomain)] != 0 {
		t.Fatalf("context length not zero")
	}
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509_test

import (
	"bytes"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/dark-bio/x509-go/internal/certbuild"
	"github.com/dark-bio/x509-go/pem"
	"github.com/dark-bio/x509-go/x509"
)

// TestParseCRLFields tests the decoding of the reference revocation list.
func TestParseCRLFields(t *testing.T) {
	crl, err := x509.ParseCRL(readFixture(t, "crl.der"))
	if err != nil {
		t.Fatalf("failed to parse crl: %v", err)
	}
	if crl.Version() != 2 {
		t.Errorf("version mismatch: have %d, want 2", crl.Version())
	}
	if have, want := crl.SignatureAlgorithm().Name(), "SHA1withDSA"; have != want {
		t.Errorf("algorithm mismatch: have %q, want %q", have, want)
	}
	if have, want := crl.Issuer().String(), "O=CRL Issuer"; have != want {
		t.Errorf("issuer mismatch: have %q, want %q", have, want)
	}
	if have, want := crl.ThisUpdate(), time.Date(2006, 4, 27, 6, 13, 45, 0, time.UTC); !have.Equal(want) {
		t.Errorf("this update mismatch: have %v, want %v", have, want)
	}
	next, ok := crl.NextUpdate()
	if want := time.Date(2006, 4, 27, 6, 15, 25, 0, time.UTC); !ok || !next.Equal(want) {
		t.Errorf("next update mismatch: have %v (%t), want %v", next, ok, want)
	}
	// The CRL number is not a valid INTEGER, so it is an anomaly
	if n, ok := crl.CRLNumber(); ok {
		t.Errorf("malformed crl number decoded: %v", n)
	}
	entries := crl.RevokedCertificates()
	if len(entries) != 1 {
		t.Fatalf("entry count mismatch: have %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.SerialNumber().Int64() != 555 {
		t.Errorf("serial mismatch: have %v, want 555", entry.SerialNumber())
	}
	if have, want := entry.RevocationDate(), time.Date(2006, 4, 27, 6, 13, 46, 0, time.UTC); !have.Equal(want) {
		t.Errorf("revocation date mismatch: have %v, want %v", have, want)
	}
	if reason, ok := entry.ReasonCode(); !ok || reason != x509.ReasonKeyCompromise {
		t.Errorf("reason mismatch: have %v (%t), want %v", reason, ok, x509.ReasonKeyCompromise)
	}
	// Fractional seconds are not allowed in DER GeneralizedTime
	if date, ok := entry.InvalidityDate(); ok {
		t.Errorf("malformed invalidity date decoded: %v", date)
	}
	if !entry.HasExtensions() {
		t.Errorf("entry extensions missing")
	}
	if crl.RevokedCertificate(big.NewInt(555)) != entry {
		t.Errorf("entry lookup by serial failed")
	}
	if crl.RevokedCertificate(big.NewInt(556)) != nil {
		t.Errorf("lookup of unknown serial succeeded")
	}
	// Same serial, different issuer
	if crl.IsRevoked(parseFixture(t, "correct.pem")) {
		t.Errorf("certificate of another issuer reported revoked")
	}
	if !strings.Contains(crl.String(), "keyCompromise") {
		t.Errorf("summary misses the revocation reason")
	}
}

// TestParseCRLRejects tests that broken revocation lists fail as malformed.
func TestParseCRLRejects(t *testing.T) {
	blob := readFixture(t, "crl.der")

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", blob[:len(blob)-1]},
		{"trailing", append(bytes.Clone(blob), 0x00)},
		{"certificate", readFixture(t, "correct.pem")},
		{"wrong pem type", pem.Encode(pem.TypeCertificate, blob)},
	}
	for _, tt := range tests {
		crl, err := x509.ParseCRL(tt.data)
		if crl != nil || !errors.Is(err, x509.ErrMalformedEncoding) {
			t.Errorf("%s: error mismatch: have %v, want %v", tt.name, err, x509.ErrMalformedEncoding)
		}
	}
	// The PEM form of the same list is accepted
	if _, err := x509.ParseCRL(pem.Encode(pem.TypeCRL, blob)); err != nil {
		t.Errorf("pem crl rejected: %v", err)
	}
}

// TestBuiltCRL tests revocation lists issued by a generated CA, both v2 with
// extensions and v1 without.
func TestBuiltCRL(t *testing.T) {
	var (
		signer = certbuild.GenerateECDSA()
		caName = pkix.Name{CommonName: "Test CA", Organization: []string{"Dark Bio"}}
		now    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	)
	caBlob, err := certbuild.New(signer, &certbuild.Params{
		Issuer:    caName,
		Subject:   caName,
		NotBefore: now,
		NotAfter:  now.AddDate(10, 0, 0),
	})
	if err != nil {
		t.Fatalf("failed to create ca: %v", err)
	}
	ca := x509.MustParse(caBlob)

	leafBlob, err := certbuild.New(signer, &certbuild.Params{
		SerialNumber: big.NewInt(42),
		Issuer:       caName,
		Subject:      pkix.Name{CommonName: "Leaf"},
		NotBefore:    now,
		NotAfter:     now.AddDate(1, 0, 0),
		SubjectKey:   certbuild.GenerateEd25519().PublicKeyInfo(),
	})
	if err != nil {
		t.Fatalf("failed to create leaf: %v", err)
	}
	leaf := x509.MustParse(leafBlob)

	crlBlob, err := certbuild.NewCRL(signer, &certbuild.CRLParams{
		Number:     big.NewInt(7),
		Issuer:     caName,
		ThisUpdate: now,
		NextUpdate: now.Add(24 * time.Hour),
		Revoked: []certbuild.RevokedEntry{
			{SerialNumber: big.NewInt(41), RevokedAt: now, Reason: -1},
			{SerialNumber: big.NewInt(42), RevokedAt: now, Reason: int(x509.ReasonSuperseded)},
		},
	})
	if err != nil {
		t.Fatalf("failed to create crl: %v", err)
	}
	crl, err := x509.ParseCRL(crlBlob)
	if err != nil {
		t.Fatalf("failed to parse crl: %v", err)
	}
	if crl.Version() != 2 {
		t.Errorf("version mismatch: have %d, want 2", crl.Version())
	}
	if n, ok := crl.CRLNumber(); !ok || n.Int64() != 7 {
		t.Errorf("crl number mismatch: have %v (%t), want 7", n, ok)
	}
	if !crl.IsRevoked(leaf) {
		t.Errorf("revoked leaf not reported")
	}
	if crl.IsRevoked(ca) {
		t.Errorf("ca reported revoked")
	}
	if entry := crl.RevokedCertificate(big.NewInt(41)); entry == nil || entry.HasExtensions() {
		t.Errorf("entry without reason mismatch: %v", entry)
	}
	if reason, ok := crl.RevokedCertificate(big.NewInt(42)).ReasonCode(); !ok || reason != x509.ReasonSuperseded {
		t.Errorf("reason mismatch: have %v (%t)", reason, ok)
	}
	if !bytes.Contains(crlBlob, crl.RawTBSCertList()) || len(crl.Signature()) == 0 {
		t.Errorf("signed span or signature missing")
	}

	v1Blob, err := certbuild.NewCRL(signer, &certbuild.CRLParams{
		Issuer:     caName,
		ThisUpdate: now,
		Revoked:    []certbuild.RevokedEntry{{SerialNumber: big.NewInt(42), RevokedAt: now, Reason: -1}},
	})
	if err != nil {
		t.Fatalf("failed to create v1 crl: %v", err)
	}
	v1, err := x509.ParseCRL(v1Blob)
	if err != nil {
		t.Fatalf("failed to parse v1 crl: %v", err)
	}
	if v1.Version() != 1 || len(v1.Extensions()) != 0 {
		t.Errorf("v1 shape mismatch: version %d, %d extensions", v1.Version(), len(v1.Extensions()))
	}
	if _, ok := v1.NextUpdate(); ok {
		t.Errorf("absent next update reported")
	}
	if !v1.IsRevoked(leaf) {
		t.Errorf("revoked leaf not reported by v1 list")
	}
	if !strings.Contains(v1.String(), "NOT DEFINED") {
		t.Errorf("summary misses the absent next update")
	}
}

// TestCRLZeroNextUpdate tests that an encoded next update at the zero instant
// is still reported as present.
func TestCRLZeroNextUpdate(t *testing.T) {
	blob, err := certbuild.NewCRL(certbuild.GenerateEd25519(), &certbuild.CRLParams{
		Number:     big.NewInt(1),
		Issuer:     pkix.Name{CommonName: "Test CA"},
		ThisUpdate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		KeepNext:   true,
	})
	if err != nil {
		t.Fatalf("failed to create crl: %v", err)
	}
	crl, err := x509.ParseCRL(blob)
	if err != nil {
		t.Fatalf("failed to parse crl: %v", err)
	}
	next, ok := crl.NextUpdate()
	if !ok || !next.Equal(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next update mismatch: have %v (%t)", next, ok)
	}
	if strings.Contains(crl.String(), "NOT DEFINED") {
		t.Errorf("present next update reported as absent")
	}
}

// TestCRLNilLookups tests that lookups with missing arguments report nothing.
func TestCRLNilLookups(t *testing.T) {
	crl, err := x509.ParseCRL(readFixture(t, "crl.der"))
	if err != nil {
		t.Fatalf("failed to parse crl: %v", err)
	}
	if entry := crl.RevokedCertificate(nil); entry != nil {
		t.Errorf("nil serial matched entry %v", entry)
	}
	if crl.IsRevoked(nil) {
		t.Errorf("nil certificate reported revoked")
	}
}

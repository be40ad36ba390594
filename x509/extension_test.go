// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509_test

import (
	"bytes"
	"crypto/sha1"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dark-bio/x509-go/internal/certbuild"
	"github.com/dark-bio/x509-go/x509"
)

// buildCert creates a certificate from the given parameters, filling in the
// names and validity if unset, and signs it with a fresh Ed25519 key.
func buildCert(t testing.TB, params certbuild.Params) []byte {
	t.Helper()

	if params.Issuer.CommonName == "" {
		params.Issuer = pkix.Name{CommonName: "Test Issuer"}
	}
	if params.Subject.CommonName == "" {
		params.Subject = pkix.Name{CommonName: "Test Subject"}
	}
	if params.NotBefore.IsZero() {
		params.NotBefore = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if params.NotAfter.IsZero() {
		params.NotAfter = time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	blob, err := certbuild.New(certbuild.GenerateEd25519(), &params)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	return blob
}

// TestAnomalyNotFatal tests that a recognised extension with a broken value
// is downgraded to opaque while the rest of the certificate stays usable.
func TestAnomalyNotFatal(t *testing.T) {
	blob := buildCert(t, certbuild.Params{
		Extensions: []pkix.Extension{
			certbuild.Raw(x509.OIDExtensionBasicConstraints, true, []byte{0x01}),
			certbuild.Raw(x509.OIDExtensionKeyUsage, true, []byte{0x30, 0x00}),
			certbuild.Raw(x509.OIDExtensionSubjectAltName, false, []byte{0x30, 0x03, 0x82, 0x01}),
		},
	})
	cert, err := x509.Parse(blob)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	if cert.BasicConstraints() != -1 {
		t.Errorf("broken basic constraints not downgraded")
	}
	if _, ok := cert.KeyUsage(); ok {
		t.Errorf("broken key usage not downgraded")
	}
	if cert.SubjectAlternativeNames() != nil {
		t.Errorf("broken alternative names not downgraded")
	}
	for _, ext := range cert.Extensions() {
		_, err := ext.Payload()

		var certErr *x509.CertificateError
		if !errors.As(err, &certErr) || certErr.Kind != x509.ExtensionDecodingAnomaly {
			t.Errorf("extension %v: anomaly mismatch: have %v", ext.OID(), err)
		}
		if !ext.Opaque() {
			t.Errorf("extension %v: not opaque", ext.OID())
		}
	}
	if cert.SubjectPrincipal() != "CN=Test Subject" {
		t.Errorf("subject mismatch: have %q", cert.SubjectPrincipal())
	}
}

// TestPayloadConcurrent tests that concurrent first accesses of a payload all
// observe the same value.
func TestPayloadConcurrent(t *testing.T) {
	for round := 0; round < 16; round++ {
		cert := parseFixture(t, "correct.pem")
		ext := cert.Extension(x509.OIDExtensionExtKeyUsage)

		var (
			wg      sync.WaitGroup
			results = make([]any, 8)
		)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = ext.Payload()
			}(i)
		}
		wg.Wait()

		for i, result := range results {
			if result == nil || result != results[0] {
				t.Fatalf("round %d: payload %d differs", round, i)
			}
		}
	}
}

// TestEmptyAuthorityKeyID tests that an authority key identifier without any
// of its optional fields is accepted.
func TestEmptyAuthorityKeyID(t *testing.T) {
	cert, err := x509.Parse(buildCert(t, certbuild.Params{
		Extensions: []pkix.Extension{
			certbuild.Raw(x509.OIDExtensionAuthorityKeyID, false, []byte{0x30, 0x00}),
		},
	}))
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	aki := cert.AuthorityKeyIdentifier()
	if aki == nil {
		t.Fatalf("authority key identifier missing")
	}
	if aki.KeyID != nil || aki.Issuer != nil || aki.SerialNumber != nil {
		t.Fatalf("unexpected fields: %+v", aki)
	}
	if have, want := cert.ExtensionValue(x509.OIDExtensionAuthorityKeyID), []byte{0x04, 0x02, 0x30, 0x00}; !bytes.Equal(have, want) {
		t.Fatalf("value mismatch: have %x, want %x", have, want)
	}
}

// TestBuiltExtensions tests the decoding of the common CA extensions.
func TestBuiltExtensions(t *testing.T) {
	signer := certbuild.GenerateEd25519()
	key := signer.PublicKeyInfo()
	zero := 0

	cert, err := x509.Parse(buildCert(t, certbuild.Params{
		Extensions: []pkix.Extension{
			certbuild.BasicConstraints(true, &zero),
			certbuild.KeyUsage(true),
			certbuild.SubjectKeyID(key),
			certbuild.AuthorityKeyID(key),
		},
	}))
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	if have := cert.BasicConstraints(); have != 0 {
		t.Errorf("path length mismatch: have %d, want 0", have)
	}
	usage, ok := cert.KeyUsage()
	if !ok || usage != x509.KeyUsageCertSign|x509.KeyUsageCRLSign {
		t.Errorf("key usage mismatch: have %v", usage)
	}
	hash := sha1.Sum(key)
	if have := cert.SubjectKeyIdentifier(); !bytes.Equal(have, hash[:]) {
		t.Errorf("subject key id mismatch: have %x, want %x", have, hash)
	}
	if aki := cert.AuthorityKeyIdentifier(); aki == nil || !bytes.Equal(aki.KeyID, hash[:]) {
		t.Errorf("authority key id mismatch: have %+v", aki)
	}
	if cert.HasUnsupportedCriticalExtension() {
		t.Errorf("supported critical extensions flagged")
	}
	if have := len(cert.CriticalExtensionOIDs()); have != 2 {
		t.Errorf("critical count mismatch: have %d, want 2", have)
	}
}

// TestUnknownCriticalExtension tests that unknown critical extensions are
// flagged but do not fail the decode.
func TestUnknownCriticalExtension(t *testing.T) {
	oid := asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 99999, 1}

	cert, err := x509.Parse(buildCert(t, certbuild.Params{
		Extensions: []pkix.Extension{certbuild.Raw(oid, true, []byte{0x05, 0x00})},
	}))
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	if !cert.HasUnsupportedCriticalExtension() {
		t.Fatalf("unknown critical extension not flagged")
	}
	if have, want := cert.ExtensionValue(oid), []byte{0x04, 0x02, 0x05, 0x00}; !bytes.Equal(have, want) {
		t.Fatalf("value mismatch: have %x, want %x", have, want)
	}
}

// TestCriticalWithoutDecoder tests that critical extensions are flagged
// exactly when no decoder recognises them, whatever their standard status.
func TestCriticalWithoutDecoder(t *testing.T) {
	tests := []struct {
		oid  asn1.ObjectIdentifier
		want bool
	}{
		{x509.OIDExtensionNameConstraints, true},
		{x509.OIDExtensionInhibitAnyPolicy, true},
		{x509.OIDExtensionSubjectKeyID, false},
		{x509.OIDExtensionCRLDistributionPoints, false},
		{x509.OIDExtensionIssuerAltName, false},
	}
	for _, tt := range tests {
		cert, err := x509.Parse(buildCert(t, certbuild.Params{
			Extensions: []pkix.Extension{certbuild.Raw(tt.oid, true, []byte{0x30, 0x00})},
		}))
		if err != nil {
			t.Fatalf("%v: failed to parse certificate: %v", tt.oid, err)
		}
		if have := cert.HasUnsupportedCriticalExtension(); have != tt.want {
			t.Errorf("%v: flag mismatch: have %t, want %t", tt.oid, have, tt.want)
		}
	}
}

// TestDuplicateExtensions tests that repeating an extension identifier fails
// the decode.
func TestDuplicateExtensions(t *testing.T) {
	ski := certbuild.SubjectKeyID([]byte("key"))

	_, err := x509.Parse(buildCert(t, certbuild.Params{
		Extensions: []pkix.Extension{ski, ski},
	}))
	if !errors.Is(err, x509.ErrMalformedEncoding) {
		t.Fatalf("error mismatch: have %v, want %v", err, x509.ErrMalformedEncoding)
	}
}

// TestVersionGates tests which optional certificate fields each version may
// carry.
func TestVersionGates(t *testing.T) {
	uid := asn1.BitString{Bytes: []byte{0xab, 0xc0}, BitLength: 12}
	ext := []pkix.Extension{certbuild.KeyUsage(false)}

	tests := []struct {
		name    string
		params  certbuild.Params
		version int
		fail    bool
	}{
		{"v1", certbuild.Params{Version: 1}, 1, false},
		{"v1 with unique ids", certbuild.Params{Version: 1, IssuerUniqueID: uid}, 0, true},
		{"v1 with extensions", certbuild.Params{Version: 1, Extensions: ext}, 0, true},
		{"v2", certbuild.Params{Version: 2}, 2, false},
		{"v2 with unique ids", certbuild.Params{Version: 2, IssuerUniqueID: uid, SubjectUniqueID: uid}, 2, false},
		{"v2 with extensions", certbuild.Params{Version: 2, Extensions: ext}, 0, true},
		{"v3", certbuild.Params{Version: 3}, 3, false},
		{"v3 with everything", certbuild.Params{Version: 3, SubjectUniqueID: uid, Extensions: ext}, 3, false},
	}
	for _, tt := range tests {
		cert, err := x509.Parse(buildCert(t, tt.params))
		if tt.fail {
			if !errors.Is(err, x509.ErrMalformedEncoding) {
				t.Errorf("%s: error mismatch: have %v, want %v", tt.name, err, x509.ErrMalformedEncoding)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: failed to parse certificate: %v", tt.name, err)
			continue
		}
		if cert.Version() != tt.version {
			t.Errorf("%s: version mismatch: have %d, want %d", tt.name, cert.Version(), tt.version)
		}
	}
}

// TestVersion1 tests that a v1 certificate decodes with empty extension
// accessors.
func TestVersion1(t *testing.T) {
	cert, err := x509.Parse(buildCert(t, certbuild.Params{
		Version: 1,
		Issuer:  pkix.Name{CommonName: "Z"},
		Subject: pkix.Name{CommonName: "Y"},
	}))
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	if cert.IssuerPrincipal() != "CN=Z" || cert.SubjectPrincipal() != "CN=Y" {
		t.Fatalf("principals mismatch: have %q, %q", cert.IssuerPrincipal(), cert.SubjectPrincipal())
	}
	if len(cert.Extensions()) != 0 {
		t.Fatalf("unexpected extensions")
	}
	if cert.CriticalExtensionOIDs() != nil || cert.NonCriticalExtensionOIDs() != nil {
		t.Fatalf("unexpected extension identifiers")
	}
	if cert.BasicConstraints() != -1 || cert.ExtendedKeyUsage() != nil || cert.SubjectAlternativeNames() != nil {
		t.Fatalf("unexpected extension payloads")
	}
	if _, ok := cert.IssuerUniqueID(); ok {
		t.Fatalf("unexpected issuer unique id")
	}
}

// TestUniqueIDs tests that unaligned unique identifiers keep their exact bit
// length.
func TestUniqueIDs(t *testing.T) {
	cert, err := x509.Parse(buildCert(t, certbuild.Params{
		Version:         2,
		SubjectUniqueID: asn1.BitString{Bytes: []byte{0xab, 0xc0}, BitLength: 12},
	}))
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	if _, ok := cert.IssuerUniqueID(); ok {
		t.Fatalf("unexpected issuer unique id")
	}
	uid, ok := cert.SubjectUniqueID()
	if !ok || uid.BitLength != 12 || !bytes.Equal(uid.Bytes, []byte{0xab, 0xc0}) {
		t.Fatalf("subject unique id mismatch: have %v (%t)", uid, ok)
	}
}

// TestValidityEncodings tests that both UTCTime and GeneralizedTime validity
// bounds decode to the same instants.
func TestValidityEncodings(t *testing.T) {
	notBefore := time.Date(2049, 12, 31, 23, 59, 59, 0, time.UTC)
	notAfter := time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, generalized := range []bool{false, true} {
		cert, err := x509.Parse(buildCert(t, certbuild.Params{
			NotBefore:       notBefore,
			NotAfter:        notAfter,
			GeneralizedTime: generalized,
		}))
		if err != nil {
			t.Fatalf("generalized %t: failed to parse certificate: %v", generalized, err)
		}
		if !cert.NotBefore().Equal(notBefore) || !cert.NotAfter().Equal(notAfter) {
			t.Errorf("generalized %t: validity mismatch: have %v - %v", generalized, cert.NotBefore(), cert.NotAfter())
		}
	}
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envelope

import (
	"bytes"
	"crypto/x509/pkix"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dark-bio/x509-go/internal/certbuild"
	"github.com/dark-bio/x509-go/verify"
	"github.com/dark-bio/x509-go/x509"
)

// selfSigned creates a self-signed certificate with the given signer.
func selfSigned(t *testing.T, signer certbuild.Signer) *x509.Certificate {
	t.Helper()

	blob, err := certbuild.New(signer, &certbuild.Params{
		Issuer:    pkix.Name{CommonName: "Envelope"},
		Subject:   pkix.Name{CommonName: "Envelope"},
		NotBefore: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:  time.Date(2035, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	return x509.MustParse(blob)
}

// TestRoundTrip tests that an envelope survives encoding and still verifies.
func TestRoundTrip(t *testing.T) {
	var seed [32]byte
	for _, signer := range []certbuild.Signer{certbuild.GenerateEd25519(), certbuild.GenerateRSA(), certbuild.NewMLDSA(seed)} {
		cert := selfSigned(t, signer)

		blob, err := New(cert).Marshal()
		if err != nil {
			t.Fatalf("failed to marshal envelope: %v", err)
		}
		env, err := Unmarshal(blob)
		if err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		if env.Algorithm != cert.SigAlgOID() || !bytes.Equal(env.TBS, cert.RawTBSCertificate()) {
			t.Fatalf("envelope content mismatch")
		}
		if !bytes.Equal(env.Params, cert.SigAlgParams()) {
			t.Fatalf("params mismatch: have %x, want %x", env.Params, cert.SigAlgParams())
		}
		if err := env.Verify(verify.New(), nil); err != nil {
			t.Fatalf("%s: envelope rejected: %v", cert.SigAlgName(), err)
		}
		env.TBS[len(env.TBS)-1] ^= 0x01
		if err := env.Verify(verify.New(), nil); !errors.Is(err, x509.ErrSignatureInvalid) {
			t.Fatalf("%s: tampered envelope: have %v, want %v", cert.SigAlgName(), err, x509.ErrSignatureInvalid)
		}
	}
}

// TestEncoding tests the exact array layout of an encoded envelope.
func TestEncoding(t *testing.T) {
	env := &Envelope{
		Algorithm:  "1.3.101.112",
		TBS:        []byte{0x30, 0x00},
		Signature:  []byte{0xaa},
		SubjectKey: []byte{0x30, 0x00},
	}
	blob, err := env.Marshal()
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	// array(5), text(11), null, bytes(2), bytes(1), bytes(2)
	want := []byte{
		0x85,
		0x6b, '1', '.', '3', '.', '1', '0', '1', '.', '1', '1', '2',
		0xf6,
		0x42, 0x30, 0x00,
		0x41, 0xaa,
		0x42, 0x30, 0x00,
	}
	if !bytes.Equal(blob, want) {
		t.Fatalf("encoding mismatch: have %x, want %x", blob, want)
	}
}

// TestUnmarshalRejects tests that malformed or non-canonical encodings are
// refused.
func TestUnmarshalRejects(t *testing.T) {
	valid, err := (&Envelope{
		Algorithm:  "1.3.101.112",
		TBS:        []byte{0x30, 0x00},
		Signature:  []byte{0xaa},
		SubjectKey: []byte{0x30, 0x00},
	}).Marshal()
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	if _, err := Unmarshal(valid); err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"trailing", append(bytes.Clone(valid), 0x00)},
		{"short array", append([]byte{0x84}, valid[1:len(valid)-3]...)},
		{"long length", append([]byte{0x85, 0x78, 0x0b}, valid[2:]...)},
		{"indefinite array", append(append([]byte{0x9f}, valid[1:]...), 0xff)},
		{"bad algorithm", func() []byte {
			blob, _ := (&Envelope{Algorithm: "x", TBS: []byte{0x30, 0x00}, SubjectKey: []byte{0x30, 0x00}}).Marshal()
			return blob
		}()},
		{"empty tbs", func() []byte {
			blob, _ := (&Envelope{Algorithm: "1.2.3", SubjectKey: []byte{0x30, 0x00}}).Marshal()
			return blob
		}()},
	}
	for _, tt := range tests {
		if env, err := Unmarshal(tt.data); err == nil || env != nil {
			t.Errorf("%s: envelope accepted", tt.name)
		}
	}
	// A text length in a wider form than needed is the non-canonical case
	long := append([]byte{0x85, 0x78, 0x0b}, valid[2:]...)
	if _, err := Unmarshal(long); !errors.Is(err, ErrNonCanonical) {
		t.Errorf("long length: have %v, want %v", err, ErrNonCanonical)
	}
}

// TestFixtureChain tests that an envelope of a real certificate verifies
// against its issuer key.
func TestFixtureChain(t *testing.T) {
	root := x509.MustParse(readFile(t, "../x509/testdata/basic_ca_no_path.pem"))
	intermediate := x509.MustParse(readFile(t, "../x509/testdata/basic_ca_zero_path.pem"))

	env := New(intermediate)
	if err := env.Verify(verify.New(), root.PublicKey()); err != nil {
		t.Fatalf("envelope rejected: %v", err)
	}
	if err := env.Verify(verify.New(), nil); !errors.Is(err, x509.ErrSignatureInvalid) {
		t.Fatalf("self check: have %v, want %v", err, x509.ErrSignatureInvalid)
	}
	alg, err := env.AlgorithmIdentifier()
	if err != nil {
		t.Fatalf("failed to rebuild algorithm: %v", err)
	}
	if !bytes.Equal(alg.Raw, intermediate.SignatureAlgorithm().Raw) {
		t.Fatalf("algorithm mismatch: have %x, want %x", alg.Raw, intermediate.SignatureAlgorithm().Raw)
	}
}

// readFile loads a fixture shared with the x509 package.
func readFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

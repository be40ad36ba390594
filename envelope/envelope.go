// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package envelope packs the signature pre-image of a certificate into a
// compact CBOR structure, so the signature can be checked by a party that
// never sees, nor decodes, the certificate itself.
//
// https://datatracker.ietf.org/doc/html/rfc8949#section-4.2
//
// The encoding is a 5 element array in core deterministic form:
//
//	[algorithm: text, params: bytes / null, tbs: bytes, signature: bytes, key: bytes]
package envelope

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/dark-bio/x509-go/x509"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Error types for envelope decoding failures
var (
	ErrNonCanonical = errors.New("envelope: non-canonical encoding")
	ErrInvalidField = errors.New("envelope: invalid field")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		TagsMd:            cbor.TagsForbidden,
		UTF8:              cbor.UTF8RejectInvalid,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Envelope is the signature pre-image of a certificate, together with the
// subject key for self-signed checks.
type Envelope struct {
	_ struct{} `cbor:",toarray"`

	Algorithm  string // Dotted signature algorithm identifier
	Params     []byte // Encoded algorithm parameters, nil if absent
	TBS        []byte // Original TBSCertificate encoding
	Signature  []byte // Signature bytes
	SubjectKey []byte // Encoded SubjectPublicKeyInfo of the certificate
}

// New captures the signature pre-image of a decoded certificate.
func New(cert *x509.Certificate) *Envelope {
	return &Envelope{
		Algorithm:  cert.SigAlgOID(),
		Params:     cert.SigAlgParams(),
		TBS:        cert.RawTBSCertificate(),
		Signature:  cert.Signature(),
		SubjectKey: cert.PublicKey().Raw,
	}
}

// Marshal encodes the envelope in core deterministic CBOR.
func (e *Envelope) Marshal() ([]byte, error) {
	return encMode.Marshal(e)
}

// Unmarshal decodes an envelope, rejecting anything but the exact encoding
// Marshal would produce for the same content.
func Unmarshal(data []byte) (*Envelope, error) {
	e := new(Envelope)
	if err := decMode.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if _, err := x509.ParseOID(e.Algorithm); err != nil {
		return nil, fmt.Errorf("%w: algorithm %q", ErrInvalidField, e.Algorithm)
	}
	if len(e.TBS) == 0 || len(e.SubjectKey) == 0 {
		return nil, fmt.Errorf("%w: empty tbs or key", ErrInvalidField)
	}
	blob, err := e.Marshal()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(blob, data) {
		return nil, ErrNonCanonical
	}
	return e, nil
}

// AlgorithmIdentifier rebuilds the signature algorithm identifier.
func (e *Envelope) AlgorithmIdentifier() (x509.AlgorithmIdentifier, error) {
	oid, err := x509.ParseOID(e.Algorithm)
	if err != nil {
		return x509.AlgorithmIdentifier{}, fmt.Errorf("%w: algorithm %q", ErrInvalidField, e.Algorithm)
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
		b.AddBytes(e.Params)
	})
	raw, err := b.Bytes()
	if err != nil {
		return x509.AlgorithmIdentifier{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return x509.ParseAlgorithmIdentifier(raw)
}

// Verify checks the signature over the TBS bytes with the issuer key, or
// with the enclosed subject key if issuerKey is nil. Failures are classified
// the same way as for certificates.
func (e *Envelope) Verify(v x509.SignatureVerifier, issuerKey *x509.PublicKeyInfo) error {
	alg, err := e.AlgorithmIdentifier()
	if err != nil {
		return err
	}
	key := issuerKey
	if key == nil {
		if key, err = x509.ParsePublicKeyInfo(e.SubjectKey); err != nil {
			return err
		}
	}
	return x509.VerifySignature(v, alg, key, e.TBS, asn1.BitString{
		Bytes:     e.Signature,
		BitLength: len(e.Signature) * 8,
	})
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package certbuild creates X.509 certificates and revocation lists of
// arbitrary shape for exercising the decoder: v1 and v2 certificates, unique
// identifiers, GeneralizedTime validity, hand crafted extensions and post
// quantum signatures.
//
// https://datatracker.ietf.org/doc/html/rfc5280
package certbuild

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"math/big"
	"time"
)

var (
	oidExtensionSubjectKeyID     = asn1.ObjectIdentifier{2, 5, 29, 14}
	oidExtensionKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtensionBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidExtensionCRLNumber        = asn1.ObjectIdentifier{2, 5, 29, 20}
	oidExtensionReasonCode       = asn1.ObjectIdentifier{2, 5, 29, 21}
	oidExtensionAuthorityKeyID   = asn1.ObjectIdentifier{2, 5, 29, 35}
)

// Signer is an interface for keys that can sign certificates.
type Signer interface {
	// Algorithm returns the signature algorithm identifier.
	Algorithm() pkix.AlgorithmIdentifier

	// PublicKeyInfo returns the DER encoded SubjectPublicKeyInfo of the key.
	PublicKeyInfo() []byte

	// Sign signs the message and returns the signature.
	Sign(message []byte) ([]byte, error)
}

// Params contains the fields of a certificate to create.
type Params struct {
	Version         int      // Certificate version 1, 2 or 3; zero means 3
	SerialNumber    *big.Int // Serial number, nil for a random one
	Issuer          pkix.Name
	Subject         pkix.Name
	NotBefore       time.Time
	NotAfter        time.Time
	GeneralizedTime bool             // Encode the validity as GeneralizedTime
	SubjectKey      []byte           // DER SubjectPublicKeyInfo, nil to certify the signer's own key
	IssuerUniqueID  asn1.BitString   // Omitted if empty
	SubjectUniqueID asn1.BitString   // Omitted if empty
	Extensions      []pkix.Extension // Omitted if nil
}

// tbsCertificate is the ASN.1 structure for the TBS (to-be-signed) certificate.
type tbsCertificate struct {
	Version            int `asn1:"optional,explicit,default:0,tag:0"`
	SerialNumber       *big.Int
	SignatureAlgorithm pkix.AlgorithmIdentifier
	Issuer             asn1.RawValue
	Validity           validity
	Subject            asn1.RawValue
	PublicKeyInfo      asn1.RawValue
	IssuerUniqueID     asn1.BitString   `asn1:"optional,tag:1"`
	SubjectUniqueID    asn1.BitString   `asn1:"optional,tag:2"`
	Extensions         []pkix.Extension `asn1:"optional,explicit,tag:3"`
}

// validity is the ASN.1 structure for certificate validity period.
type validity struct {
	NotBefore asn1.RawValue
	NotAfter  asn1.RawValue
}

// signed is the ASN.1 structure shared by certificates and revocation lists.
type signed struct {
	TBS                asn1.RawValue
	SignatureAlgorithm pkix.AlgorithmIdentifier
	SignatureValue     asn1.BitString
}

// New creates a DER encoded certificate signed by the given signer.
func New(signer Signer, params *Params) ([]byte, error) {
	version := params.Version
	if version == 0 {
		version = 3
	}
	if version < 1 || version > 3 {
		return nil, errors.New("certbuild: invalid version")
	}
	serial := params.SerialNumber
	if serial == nil {
		serial = randomSerial()
	}
	issuer, err := marshalName(params.Issuer)
	if err != nil {
		return nil, err
	}
	subject, err := marshalName(params.Subject)
	if err != nil {
		return nil, err
	}
	notBefore, err := marshalTime(params.NotBefore, params.GeneralizedTime)
	if err != nil {
		return nil, err
	}
	notAfter, err := marshalTime(params.NotAfter, params.GeneralizedTime)
	if err != nil {
		return nil, err
	}
	spki := params.SubjectKey
	if spki == nil {
		spki = signer.PublicKeyInfo()
	}
	tbs := tbsCertificate{
		Version:            version - 1,
		SerialNumber:       serial,
		SignatureAlgorithm: signer.Algorithm(),
		Issuer:             issuer,
		Validity:           validity{NotBefore: notBefore, NotAfter: notAfter},
		Subject:            subject,
		PublicKeyInfo:      asn1.RawValue{FullBytes: spki},
		IssuerUniqueID:     params.IssuerUniqueID,
		SubjectUniqueID:    params.SubjectUniqueID,
		Extensions:         params.Extensions,
	}
	tbsDER, err := asn1.Marshal(tbs)
	if err != nil {
		return nil, err
	}
	return sign(signer, tbsDER)
}

// RevokedEntry is a revoked certificate of a revocation list to create.
type RevokedEntry struct {
	SerialNumber *big.Int
	RevokedAt    time.Time
	Reason       int // Reason code, negative to omit the extension
}

// CRLParams contains the fields of a revocation list to create.
type CRLParams struct {
	Number     *big.Int // CRL number, nil to create a v1 list without extensions
	Issuer     pkix.Name
	ThisUpdate time.Time
	NextUpdate time.Time // Omitted if zero, unless KeepNext is set
	KeepNext   bool
	Revoked    []RevokedEntry
}

// tbsCertList is the ASN.1 structure for the TBS (to-be-signed) revocation list.
type tbsCertList struct {
	Version             int `asn1:"optional,default:0"`
	SignatureAlgorithm  pkix.AlgorithmIdentifier
	Issuer              asn1.RawValue
	ThisUpdate          time.Time
	NextUpdate          asn1.RawValue    `asn1:"optional"`
	RevokedCertificates []revokedEntry   `asn1:"optional"`
	Extensions          []pkix.Extension `asn1:"optional,explicit,tag:0"`
}

// revokedEntry is the ASN.1 structure of a single revocation.
type revokedEntry struct {
	SerialNumber   *big.Int
	RevocationDate time.Time
	Extensions     []pkix.Extension `asn1:"optional"`
}

// NewCRL creates a DER encoded revocation list signed by the given signer.
func NewCRL(signer Signer, params *CRLParams) ([]byte, error) {
	issuer, err := marshalName(params.Issuer)
	if err != nil {
		return nil, err
	}
	tbs := tbsCertList{
		SignatureAlgorithm: signer.Algorithm(),
		Issuer:             issuer,
		ThisUpdate:         params.ThisUpdate.UTC(),
	}
	if params.KeepNext || !params.NextUpdate.IsZero() {
		next, err := asn1.Marshal(params.NextUpdate.UTC())
		if err != nil {
			return nil, err
		}
		tbs.NextUpdate = asn1.RawValue{FullBytes: next}
	}
	if params.Number != nil {
		number, err := asn1.Marshal(params.Number)
		if err != nil {
			return nil, err
		}
		tbs.Version = 1 // v2
		tbs.Extensions = []pkix.Extension{{Id: oidExtensionCRLNumber, Value: number}}
	}
	for _, entry := range params.Revoked {
		rc := revokedEntry{
			SerialNumber:   entry.SerialNumber,
			RevocationDate: entry.RevokedAt.UTC(),
		}
		if entry.Reason >= 0 {
			if params.Number == nil {
				return nil, errors.New("certbuild: entry extensions need a v2 list")
			}
			reason, err := asn1.Marshal(asn1.Enumerated(entry.Reason))
			if err != nil {
				return nil, err
			}
			rc.Extensions = []pkix.Extension{{Id: oidExtensionReasonCode, Value: reason}}
		}
		tbs.RevokedCertificates = append(tbs.RevokedCertificates, rc)
	}
	tbsDER, err := asn1.Marshal(tbs)
	if err != nil {
		return nil, err
	}
	return sign(signer, tbsDER)
}

// sign wraps a TBS structure with the signer's algorithm and signature.
func sign(signer Signer, tbs []byte) ([]byte, error) {
	sig, err := signer.Sign(tbs)
	if err != nil {
		return nil, err
	}
	out := signed{
		TBS:                asn1.RawValue{FullBytes: tbs},
		SignatureAlgorithm: signer.Algorithm(),
		SignatureValue: asn1.BitString{
			Bytes:     sig,
			BitLength: len(sig) * 8,
		},
	}
	return asn1.Marshal(out)
}

// randomSerial generates a positive 127 bit serial number.
func randomSerial() *big.Int {
	serialBytes := make([]byte, 16)
	if _, err := rand.Read(serialBytes); err != nil {
		panic("certbuild: " + err.Error())
	}
	serialBytes[0] &= 0x7F // Ensure positive (MSB = 0)
	serialBytes[0] |= 0x01 // Ensure no leading zero byte
	return new(big.Int).SetBytes(serialBytes)
}

// marshalName encodes a distinguished name.
func marshalName(name pkix.Name) (asn1.RawValue, error) {
	der, err := asn1.Marshal(name.ToRDNSequence())
	if err != nil {
		return asn1.RawValue{}, err
	}
	return asn1.RawValue{FullBytes: der}, nil
}

// marshalTime encodes an instant as UTCTime, or GeneralizedTime if requested
// or if the year is outside of the UTCTime range.
func marshalTime(t time.Time, generalized bool) (asn1.RawValue, error) {
	var (
		der []byte
		err error
	)
	if generalized {
		der, err = asn1.MarshalWithParams(t.UTC(), "generalized")
	} else {
		der, err = asn1.Marshal(t.UTC())
	}
	if err != nil {
		return asn1.RawValue{}, err
	}
	return asn1.RawValue{FullBytes: der}, nil
}

// basicConstraints is the ASN.1 structure for BasicConstraints extension.
type basicConstraints struct {
	IsCA       bool `asn1:"optional"`
	MaxPathLen int  `asn1:"optional,default:-1"`
}

// BasicConstraints creates a critical BasicConstraints extension. A nil
// path length leaves the CA unbounded.
func BasicConstraints(isCA bool, pathLen *int) pkix.Extension {
	bc := basicConstraints{IsCA: isCA, MaxPathLen: -1}
	if pathLen != nil {
		bc.MaxPathLen = *pathLen
	}
	value, _ := asn1.Marshal(bc)

	return pkix.Extension{
		Id:       oidExtensionBasicConstraints,
		Critical: true,
		Value:    value,
	}
}

// KeyUsage creates a critical KeyUsage extension. For CA certificates it sets
// keyCertSign (bit 5) and cRLSign (bit 6), otherwise digitalSignature (bit 0).
func KeyUsage(isCA bool) pkix.Extension {
	var usage asn1.BitString
	if isCA {
		usage = asn1.BitString{Bytes: []byte{0b0000_0110}, BitLength: 7}
	} else {
		usage = asn1.BitString{Bytes: []byte{0b1000_0000}, BitLength: 1}
	}
	value, _ := asn1.Marshal(usage)

	return pkix.Extension{
		Id:       oidExtensionKeyUsage,
		Critical: true,
		Value:    value,
	}
}

// SubjectKeyID creates a SubjectKeyIdentifier extension from the SHA1 hash
// of the subject public key.
func SubjectKeyID(publicKey []byte) pkix.Extension {
	hash := sha1.Sum(publicKey)
	value, _ := asn1.Marshal(hash[:])

	return pkix.Extension{
		Id:    oidExtensionSubjectKeyID,
		Value: value,
	}
}

// AuthorityKeyID creates an AuthorityKeyIdentifier extension carrying the
// SHA1 hash of the issuer public key as keyIdentifier [0].
func AuthorityKeyID(publicKey []byte) pkix.Extension {
	hash := sha1.Sum(publicKey)

	keyID := asn1.RawValue{
		Class: asn1.ClassContextSpecific,
		Tag:   0,
		Bytes: hash[:],
	}
	keyIDBytes, _ := asn1.Marshal(keyID)

	seq := asn1.RawValue{
		Class:      asn1.ClassUniversal,
		Tag:        asn1.TagSequence,
		IsCompound: true,
		Bytes:      keyIDBytes,
	}
	value, _ := asn1.Marshal(seq)

	return pkix.Extension{
		Id:    oidExtensionAuthorityKeyID,
		Value: value,
	}
}

// Raw creates an extension with an arbitrary pre-encoded value.
func Raw(oid asn1.ObjectIdentifier, critical bool, value []byte) pkix.Extension {
	return pkix.Extension{Id: oid, Critical: critical, Value: value}
}

// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"bytes"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/dark-bio/x509-go/der"
	"github.com/dark-bio/x509-go/pem"
	"github.com/jmhodges/clock"
)

// Type is the certificate type identifier reported by every Certificate.
const Type = "X.509"

const opParseCertificate = "parse certificate"

// Certificate is a decoded X.509 v1, v2 or v3 certificate. It is immutable
// and safe for concurrent use.
type Certificate struct {
	raw    []byte // Full certificate encoding
	rawTBS []byte // TBSCertificate encoding, the signed bytes

	version    int
	serial     *big.Int
	sigAlg     AlgorithmIdentifier
	issuer     Name
	subject    Name
	notBefore  time.Time
	notAfter   time.Time
	publicKey  *PublicKeyInfo
	issuerUID  *asn1.BitString
	subjectUID *asn1.BitString
	extensions []*Extension
	signature  asn1.BitString

	clock clock.Clock
}

// Parse decodes a certificate from PEM text or raw DER, without checking the
// signature.
func Parse(data []byte) (*Certificate, error) {
	return ParseWithOptions(data, nil)
}

// ParseVerified decodes a certificate and checks its signature against the
// issuer key, or against its own key if issuerKey is nil. A certificate that
// fails the check is never returned.
func ParseVerified(data []byte, verifier SignatureVerifier, issuerKey *PublicKeyInfo) (*Certificate, error) {
	return ParseWithOptions(data, &Options{Verifier: verifier, IssuerKey: issuerKey})
}

// ParseWithOptions decodes a certificate from PEM text or raw DER. If the
// options carry a verifier, the signature is checked as part of the decode.
func ParseWithOptions(data []byte, opts *Options) (*Certificate, error) {
	blob, err := pem.DecodeAs(data, pem.TypeCertificate)
	if err != nil {
		return nil, malformed(opParseCertificate, err)
	}
	cert, err := parseCertificate(blob)
	if err != nil {
		return nil, malformed(opParseCertificate, err)
	}
	cert.clock = opts.clockOrDefault()

	if opts != nil && opts.Verifier != nil {
		key := opts.IssuerKey
		if key == nil {
			key = cert.publicKey
		}
		if err := cert.CheckSignature(opts.Verifier, key); err != nil {
			return nil, err
		}
	}
	return cert, nil
}

// MustParse decodes a certificate from PEM text or raw DER.
// It panics if the parsing fails.
func MustParse(data []byte) *Certificate {
	cert, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return cert
}

// parseCertificate decodes SEQUENCE { TBSCertificate, AlgorithmIdentifier, BIT STRING }.
func parseCertificate(data []byte) (*Certificate, error) {
	root, err := der.Parse(data)
	if err != nil {
		return nil, err
	}
	fields, err := root.Sequence()
	if err != nil {
		return nil, err
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: certificate has %d fields", errFieldCount, len(fields))
	}
	cert := &Certificate{
		raw:    root.Raw,
		rawTBS: fields[0].Raw,
	}
	if err := cert.parseTBS(fields[0]); err != nil {
		return nil, err
	}
	outer, err := parseAlgorithmIdentifier(fields[1])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(outer.Raw, cert.sigAlg.Raw) {
		return nil, errAlgorithmMismatch
	}
	if cert.signature, err = fields[2].BitString(); err != nil {
		return nil, err
	}
	return cert, nil
}

// parseTBS walks the TBSCertificate fields in grammar order:
//
//	version [0] EXPLICIT INTEGER DEFAULT v1, serialNumber, signature, issuer,
//	validity, subject, subjectPublicKeyInfo, issuerUniqueID [1] IMPLICIT,
//	subjectUniqueID [2] IMPLICIT, extensions [3] EXPLICIT
func (c *Certificate) parseTBS(tlv *der.TLV) error {
	fields, err := tlv.Sequence()
	if err != nil {
		return err
	}
	// Version 1 certificates omit the version, an explicit v1 is not DER
	c.version = 1
	if len(fields) > 0 && fields[0].IsContext(0) {
		inner, err := fields[0].Explicit(0)
		if err != nil {
			return err
		}
		v, err := inner.Int64()
		if err != nil {
			return err
		}
		if v != 1 && v != 2 {
			return fmt.Errorf("%w: %d", errBadVersion, v)
		}
		c.version = int(v) + 1
		fields = fields[1:]
	}
	if len(fields) < 6 {
		return fmt.Errorf("%w: tbs certificate has %d mandatory fields", errFieldCount, len(fields))
	}
	if c.serial, err = fields[0].Integer(); err != nil {
		return err
	}
	if c.sigAlg, err = parseAlgorithmIdentifier(fields[1]); err != nil {
		return err
	}
	if c.issuer, err = parseName(fields[2]); err != nil {
		return err
	}
	if c.notBefore, c.notAfter, err = parseValidity(fields[3]); err != nil {
		return err
	}
	if c.subject, err = parseName(fields[4]); err != nil {
		return err
	}
	if c.publicKey, err = parsePublicKeyInfo(fields[5]); err != nil {
		return err
	}
	// Optional trailer, each field at most once and in tag order
	next := 1
	for _, field := range fields[6:] {
		if field.Class != der.ClassContextSpecific || field.Tag < next || field.Tag > 3 {
			return fmt.Errorf("%w: %s at offset %d", errUnexpectedField, fieldName(field), field.Offset)
		}
		next = field.Tag + 1

		switch field.Tag {
		case 1, 2:
			if c.version < 2 {
				return fmt.Errorf("%w: unique identifier in v%d", errVersionGate, c.version)
			}
			if field.Constructed {
				return fmt.Errorf("%w: constructed unique identifier", errUnexpectedField)
			}
			uid, err := field.Implicit(der.TagBitString).BitString()
			if err != nil {
				return err
			}
			if field.Tag == 1 {
				c.issuerUID = &uid
			} else {
				c.subjectUID = &uid
			}
		case 3:
			if c.version < 3 {
				return fmt.Errorf("%w: extensions in v%d", errVersionGate, c.version)
			}
			seq, err := field.Explicit(3)
			if err != nil {
				return err
			}
			if c.extensions, err = parseExtensions(seq); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseValidity decodes SEQUENCE { notBefore Time, notAfter Time }. Inverted
// windows are accepted.
func parseValidity(tlv *der.TLV) (time.Time, time.Time, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(fields) != 2 {
		return time.Time{}, time.Time{}, errFieldCount
	}
	notBefore, err := fields[0].Time()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	notAfter, err := fields[1].Time()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return notBefore, notAfter, nil
}

// fieldName renders the tag of an unexpected field for error messages.
func fieldName(tlv *der.TLV) string {
	if tlv.Class == der.ClassContextSpecific {
		return fmt.Sprintf("[%d]", tlv.Tag)
	}
	return fmt.Sprintf("tag %d of class %d", tlv.Tag, tlv.Class)
}

// Type returns the certificate type, always "X.509".
func (c *Certificate) Type() string {
	return Type
}

// Version returns the certificate version: 1, 2 or 3.
func (c *Certificate) Version() int {
	return c.version
}

// SerialNumber returns the serial number, which may be negative.
func (c *Certificate) SerialNumber() *big.Int {
	return new(big.Int).Set(c.serial)
}

// Issuer returns the issuer's distinguished name.
func (c *Certificate) Issuer() Name {
	return c.issuer.clone()
}

// Subject returns the subject's distinguished name.
func (c *Certificate) Subject() Name {
	return c.subject.clone()
}

// IssuerPrincipal returns the issuer name in RFC 2253 form.
func (c *Certificate) IssuerPrincipal() string {
	return c.issuer.String()
}

// SubjectPrincipal returns the subject name in RFC 2253 form.
func (c *Certificate) SubjectPrincipal() string {
	return c.subject.String()
}

// PublicKey returns the subject's public key info.
func (c *Certificate) PublicKey() *PublicKeyInfo {
	return c.publicKey.clone()
}

// RawTBSCertificate returns the TBSCertificate exactly as it appeared in the
// input, which is the pre-image of the signature.
func (c *Certificate) RawTBSCertificate() []byte {
	return slices.Clone(c.rawTBS)
}

// Signature returns the signature bytes.
func (c *Certificate) Signature() []byte {
	return slices.Clone(c.signature.Bytes)
}

// SignatureAlgorithm returns the signature algorithm identifier.
func (c *Certificate) SignatureAlgorithm() AlgorithmIdentifier {
	return c.sigAlg.clone()
}

// SigAlgName returns the display name of the signature algorithm, e.g.
// SHA256withRSA, or its dotted identifier if it is not a well known one.
func (c *Certificate) SigAlgName() string {
	return c.sigAlg.Name()
}

// SigAlgOID returns the dotted signature algorithm identifier.
func (c *Certificate) SigAlgOID() string {
	return c.sigAlg.Algorithm.String()
}

// SigAlgParams returns the encoded signature algorithm parameters, nil if
// absent.
func (c *Certificate) SigAlgParams() []byte {
	return slices.Clone(c.sigAlg.Parameters)
}

// IssuerUniqueID returns the issuer unique identifier, if present.
func (c *Certificate) IssuerUniqueID() (asn1.BitString, bool) {
	return cloneBitString(c.issuerUID)
}

// SubjectUniqueID returns the subject unique identifier, if present.
func (c *Certificate) SubjectUniqueID() (asn1.BitString, bool) {
	return cloneBitString(c.subjectUID)
}

// Encoded returns the DER encoding of the certificate, exactly as consumed.
func (c *Certificate) Encoded() []byte {
	return slices.Clone(c.raw)
}

// Extensions returns the extensions in encoding order.
func (c *Certificate) Extensions() []*Extension {
	return slices.Clone(c.extensions)
}

// Extension returns the extension with the given identifier, or nil.
func (c *Certificate) Extension(oid asn1.ObjectIdentifier) *Extension {
	return findExtension(c.extensions, oid)
}

// CriticalExtensionOIDs returns the identifiers of the critical extensions,
// nil if there are none.
func (c *Certificate) CriticalExtensionOIDs() []asn1.ObjectIdentifier {
	return extensionOIDs(c.extensions, true)
}

// NonCriticalExtensionOIDs returns the identifiers of the non-critical
// extensions, nil if there are none.
func (c *Certificate) NonCriticalExtensionOIDs() []asn1.ObjectIdentifier {
	return extensionOIDs(c.extensions, false)
}

// ExtensionValue returns the DER encoded OCTET STRING holding the value of
// the given extension, nil if the extension is absent.
func (c *Certificate) ExtensionValue(oid asn1.ObjectIdentifier) []byte {
	return extensionValue(c.extensions, oid)
}

// HasUnsupportedCriticalExtension reports whether any extension marked
// critical has no decoder in this package. Deciding whether to reject such a
// certificate is up to the caller.
func (c *Certificate) HasUnsupportedCriticalExtension() bool {
	for _, ext := range c.extensions {
		if ext.critical && extensionDecoders[ext.id.String()] == nil {
			return true
		}
	}
	return false
}

// BasicConstraints returns -1 if the certificate is not a CA (or the
// extension is absent or malformed), the path length constraint for a
// constrained CA, or NoPathLimit for an unconstrained one.
func (c *Certificate) BasicConstraints() int {
	bc, ok := extensionPayloadOf[*BasicConstraints](c.extensions, OIDExtensionBasicConstraints)
	if !ok || !bc.IsCA {
		return -1
	}
	if bc.PathLen == nil {
		return NoPathLimit
	}
	return *bc.PathLen
}

// KeyUsage returns the key usage bitset, if the extension is present and
// well formed.
func (c *Certificate) KeyUsage() (KeyUsage, bool) {
	return extensionPayloadOf[KeyUsage](c.extensions, OIDExtensionKeyUsage)
}

// ExtendedKeyUsage returns the extended key usage purposes as a read-only
// list, or nil if the extension is absent or malformed.
func (c *Certificate) ExtendedKeyUsage() *OIDList {
	list, _ := extensionPayloadOf[*OIDList](c.extensions, OIDExtensionExtKeyUsage)
	return list
}

// Policies returns the certificate policy identifiers, or nil if the
// extension is absent or malformed.
func (c *Certificate) Policies() *OIDList {
	list, _ := extensionPayloadOf[*OIDList](c.extensions, OIDExtensionCertificatePolicies)
	return list
}

// SubjectAlternativeNames returns the subject alternative names, or nil if
// the extension is absent or malformed.
func (c *Certificate) SubjectAlternativeNames() []GeneralName {
	names, _ := extensionPayloadOf[[]GeneralName](c.extensions, OIDExtensionSubjectAltName)
	return cloneGeneralNames(names)
}

// IssuerAlternativeNames returns the issuer alternative names, or nil if the
// extension is absent or malformed.
func (c *Certificate) IssuerAlternativeNames() []GeneralName {
	names, _ := extensionPayloadOf[[]GeneralName](c.extensions, OIDExtensionIssuerAltName)
	return cloneGeneralNames(names)
}

// AuthorityKeyIdentifier returns the authority key identifier, or nil if the
// extension is absent or malformed.
func (c *Certificate) AuthorityKeyIdentifier() *AuthorityKeyIdentifier {
	aki, ok := extensionPayloadOf[*AuthorityKeyIdentifier](c.extensions, OIDExtensionAuthorityKeyID)
	if !ok {
		return nil
	}
	return aki.clone()
}

// SubjectKeyIdentifier returns the subject key identifier, or nil if the
// extension is absent or malformed.
func (c *Certificate) SubjectKeyIdentifier() SubjectKeyIdentifier {
	ski, _ := extensionPayloadOf[SubjectKeyIdentifier](c.extensions, OIDExtensionSubjectKeyID)
	return slices.Clone(ski)
}

// CRLDistributionPoints returns the CRL distribution points, or nil if the
// extension is absent or malformed.
func (c *Certificate) CRLDistributionPoints() CRLDistributionPoints {
	points, ok := extensionPayloadOf[CRLDistributionPoints](c.extensions, OIDExtensionCRLDistributionPoints)
	if !ok {
		return nil
	}
	out := make(CRLDistributionPoints, len(points))
	for i, point := range points {
		out[i] = DistributionPoint{
			FullName:     cloneGeneralNames(point.FullName),
			RelativeName: slices.Clone(point.RelativeName),
			Reasons:      asn1.BitString{Bytes: slices.Clone(point.Reasons.Bytes), BitLength: point.Reasons.BitLength},
			CRLIssuer:    cloneGeneralNames(point.CRLIssuer),
		}
	}
	return out
}

// PolicyConstraints returns the policy constraints, or nil if the extension
// is absent or malformed.
func (c *Certificate) PolicyConstraints() *PolicyConstraints {
	pc, ok := extensionPayloadOf[*PolicyConstraints](c.extensions, OIDExtensionPolicyConstraints)
	if !ok {
		return nil
	}
	out := *pc
	return &out
}

// String returns a human readable multi-line summary of the certificate.
func (c *Certificate) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[\n")
	fmt.Fprintf(&b, "  Version: V%d\n", c.version)
	fmt.Fprintf(&b, "  Subject: %s\n", c.subject)
	fmt.Fprintf(&b, "  Signature Algorithm: %s, OID = %s\n", c.SigAlgName(), c.SigAlgOID())
	fmt.Fprintf(&b, "  Key: %s, %d bits\n", c.publicKey.Algorithm.Name(), c.publicKey.Key.BitLength)
	fmt.Fprintf(&b, "  Validity: [From: %s,\n               To: %s]\n",
		c.notBefore.Format(time.RFC3339), c.notAfter.Format(time.RFC3339))
	fmt.Fprintf(&b, "  Issuer: %s\n", c.issuer)
	fmt.Fprintf(&b, "  SerialNumber: [%s]\n", c.serial.Text(16))

	if uid, ok := c.IssuerUniqueID(); ok {
		fmt.Fprintf(&b, "  Issuer Id: %s\n", hex.EncodeToString(uid.Bytes))
	}
	if uid, ok := c.SubjectUniqueID(); ok {
		fmt.Fprintf(&b, "  Subject Id: %s\n", hex.EncodeToString(uid.Bytes))
	}
	if len(c.extensions) > 0 {
		fmt.Fprintf(&b, "\nCertificate Extensions: %d\n", len(c.extensions))
		for i, ext := range c.extensions {
			fmt.Fprintf(&b, "[%d]: %s\n", i+1, describeExtension(ext))
		}
	}
	fmt.Fprintf(&b, "]\n  Algorithm: [%s]\n  Signature: %s\n]", c.SigAlgName(), hex.EncodeToString(c.signature.Bytes))
	return b.String()
}

// describeExtension renders a one line summary of an extension.
func describeExtension(ext *Extension) string {
	criticality := "non-critical"
	if ext.critical {
		criticality = "critical"
	}
	value, err := ext.Payload()
	switch {
	case err != nil:
		return fmt.Sprintf("ObjectId: %s %s, anomaly: %v", ext.id, criticality, err)
	case value == nil:
		return fmt.Sprintf("ObjectId: %s %s, value: %s", ext.id, criticality, hex.EncodeToString(ext.value))
	}
	return fmt.Sprintf("ObjectId: %s %s, %s", ext.id, criticality, describePayload(value))
}

// describePayload renders an interpreted extension value.
func describePayload(value any) string {
	switch v := value.(type) {
	case *BasicConstraints:
		if v.PathLen != nil {
			return fmt.Sprintf("BasicConstraints: [CA: %t, PathLen: %d]", v.IsCA, *v.PathLen)
		}
		return fmt.Sprintf("BasicConstraints: [CA: %t, PathLen: undefined]", v.IsCA)
	case KeyUsage:
		return fmt.Sprintf("KeyUsage: [%s]", v)
	case *OIDList:
		return fmt.Sprintf("Identifiers: [%s]", strings.Join(v.Strings(), ", "))
	case []GeneralName:
		parts := make([]string, len(v))
		for i, name := range v {
			parts[i] = name.String()
		}
		return fmt.Sprintf("GeneralNames: [%s]", strings.Join(parts, ", "))
	case *AuthorityKeyIdentifier:
		return fmt.Sprintf("AuthorityKeyIdentifier: [KeyID: %s]", hex.EncodeToString(v.KeyID))
	case SubjectKeyIdentifier:
		return fmt.Sprintf("SubjectKeyIdentifier: [%s]", hex.EncodeToString(v))
	case CRLDistributionPoints:
		return fmt.Sprintf("CRLDistributionPoints: %d points", len(v))
	case *PolicyConstraints:
		return fmt.Sprintf("PolicyConstraints: [Require: %s, Inhibit: %s]",
			optionalInt(v.RequireExplicitPolicy), optionalInt(v.InhibitPolicyMapping))
	case *big.Int:
		return fmt.Sprintf("Number: %s", v)
	case ReasonCode:
		return fmt.Sprintf("Reason: %s", v)
	case time.Time:
		return fmt.Sprintf("Date: %s", v.Format(time.RFC3339))
	}
	return fmt.Sprintf("%v", value)
}

// optionalInt renders an optional integer, "unset" if absent.
func optionalInt(n *int) string {
	if n == nil {
		return "unset"
	}
	return fmt.Sprint(*n)
}

// cloneBitString deep copies an optional bit string.
func cloneBitString(bits *asn1.BitString) (asn1.BitString, bool) {
	if bits == nil {
		return asn1.BitString{}, false
	}
	return asn1.BitString{Bytes: slices.Clone(bits.Bytes), BitLength: bits.BitLength}, true
}

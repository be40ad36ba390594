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
)

const opParseCRL = "parse crl"

// CertificateList is a decoded X.509 v1 or v2 certificate revocation list.
// It is immutable and safe for concurrent use. The signature is decoded but
// never checked.
type CertificateList struct {
	raw    []byte
	rawTBS []byte

	version    int
	sigAlg     AlgorithmIdentifier
	issuer     Name
	thisUpdate time.Time
	nextUpdate time.Time
	hasNext    bool
	revoked    []*RevokedCertificate
	extensions []*Extension
	signature  asn1.BitString
}

// RevokedCertificate is a single entry of a revocation list.
type RevokedCertificate struct {
	raw            []byte
	serial         *big.Int
	revocationDate time.Time
	extensions     []*Extension
}

// ParseCRL decodes a revocation list from PEM text or raw DER.
func ParseCRL(data []byte) (*CertificateList, error) {
	blob, err := pem.DecodeAs(data, pem.TypeCRL)
	if err != nil {
		return nil, malformed(opParseCRL, err)
	}
	crl, err := parseCertificateList(blob)
	if err != nil {
		return nil, malformed(opParseCRL, err)
	}
	return crl, nil
}

// MustParseCRL decodes a revocation list from PEM text or raw DER.
// It panics if the parsing fails.
func MustParseCRL(data []byte) *CertificateList {
	crl, err := ParseCRL(data)
	if err != nil {
		panic(err)
	}
	return crl
}

// parseCertificateList decodes SEQUENCE { TBSCertList, AlgorithmIdentifier, BIT STRING }.
func parseCertificateList(data []byte) (*CertificateList, error) {
	root, err := der.Parse(data)
	if err != nil {
		return nil, err
	}
	fields, err := root.Sequence()
	if err != nil {
		return nil, err
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: crl has %d fields", errFieldCount, len(fields))
	}
	crl := &CertificateList{
		raw:    root.Raw,
		rawTBS: fields[0].Raw,
	}
	if err := crl.parseTBS(fields[0]); err != nil {
		return nil, err
	}
	outer, err := parseAlgorithmIdentifier(fields[1])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(outer.Raw, crl.sigAlg.Raw) {
		return nil, errAlgorithmMismatch
	}
	if crl.signature, err = fields[2].BitString(); err != nil {
		return nil, err
	}
	return crl, nil
}

// parseTBS walks the TBSCertList fields in grammar order:
//
//	version INTEGER OPTIONAL, signature, issuer, thisUpdate, nextUpdate OPTIONAL,
//	revokedCertificates SEQUENCE OF OPTIONAL, crlExtensions [0] EXPLICIT OPTIONAL
func (l *CertificateList) parseTBS(tlv *der.TLV) error {
	fields, err := tlv.Sequence()
	if err != nil {
		return err
	}
	l.version = 1
	if len(fields) > 0 && fields[0].IsUniversal(der.TagInteger) {
		v, err := fields[0].Int64()
		if err != nil {
			return err
		}
		if v != 1 {
			return fmt.Errorf("%w: %d", errBadVersion, v)
		}
		l.version = 2
		fields = fields[1:]
	}
	if len(fields) < 3 {
		return fmt.Errorf("%w: tbs cert list has %d mandatory fields", errFieldCount, len(fields))
	}
	if l.sigAlg, err = parseAlgorithmIdentifier(fields[0]); err != nil {
		return err
	}
	if l.issuer, err = parseName(fields[1]); err != nil {
		return err
	}
	if l.thisUpdate, err = fields[2].Time(); err != nil {
		return err
	}
	fields = fields[3:]

	if len(fields) > 0 && (fields[0].IsUniversal(der.TagUTCTime) || fields[0].IsUniversal(der.TagGeneralizedTime)) {
		if l.nextUpdate, err = fields[0].Time(); err != nil {
			return err
		}
		l.hasNext = true
		fields = fields[1:]
	}
	if len(fields) > 0 && fields[0].IsUniversal(der.TagSequence) {
		entries, err := fields[0].Sequence()
		if err != nil {
			return err
		}
		for _, entry := range entries {
			rc, err := parseRevokedCertificate(entry, l.version)
			if err != nil {
				return err
			}
			l.revoked = append(l.revoked, rc)
		}
		fields = fields[1:]
	}
	if len(fields) > 0 && fields[0].IsContext(0) {
		if l.version < 2 {
			return fmt.Errorf("%w: crl extensions in v%d", errVersionGate, l.version)
		}
		seq, err := fields[0].Explicit(0)
		if err != nil {
			return err
		}
		if l.extensions, err = parseExtensions(seq); err != nil {
			return err
		}
		fields = fields[1:]
	}
	if len(fields) != 0 {
		return fmt.Errorf("%w: %s at offset %d", errUnexpectedField, fieldName(fields[0]), fields[0].Offset)
	}
	return nil
}

// parseRevokedCertificate decodes SEQUENCE { userCertificate INTEGER, revocationDate Time, crlEntryExtensions OPTIONAL }.
func parseRevokedCertificate(tlv *der.TLV, version int) (*RevokedCertificate, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 || len(fields) > 3 {
		return nil, errFieldCount
	}
	rc := &RevokedCertificate{raw: tlv.Raw}
	if rc.serial, err = fields[0].Integer(); err != nil {
		return nil, err
	}
	if rc.revocationDate, err = fields[1].Time(); err != nil {
		return nil, err
	}
	if len(fields) == 3 {
		if version < 2 {
			return nil, fmt.Errorf("%w: entry extensions in v%d", errVersionGate, version)
		}
		if rc.extensions, err = parseExtensions(fields[2]); err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// Version returns the CRL version: 1 or 2.
func (l *CertificateList) Version() int {
	return l.version
}

// Issuer returns the issuer's distinguished name.
func (l *CertificateList) Issuer() Name {
	return l.issuer.clone()
}

// ThisUpdate returns the issue date of the list.
func (l *CertificateList) ThisUpdate() time.Time {
	return l.thisUpdate
}

// NextUpdate returns the date by which the next list will be issued, if the
// list declares one.
func (l *CertificateList) NextUpdate() (time.Time, bool) {
	return l.nextUpdate, l.hasNext
}

// RevokedCertificates returns the revoked entries in encoding order.
func (l *CertificateList) RevokedCertificates() []*RevokedCertificate {
	return slices.Clone(l.revoked)
}

// RevokedCertificate returns the entry for the given serial number, or nil.
func (l *CertificateList) RevokedCertificate(serial *big.Int) *RevokedCertificate {
	if serial == nil {
		return nil
	}
	for _, rc := range l.revoked {
		if rc.serial.Cmp(serial) == 0 {
			return rc
		}
	}
	return nil
}

// IsRevoked reports whether the certificate was issued by the issuer of this
// list and appears among its entries.
func (l *CertificateList) IsRevoked(cert *Certificate) bool {
	if cert == nil || !cert.issuer.Equal(l.issuer) {
		return false
	}
	return l.RevokedCertificate(cert.serial) != nil
}

// RawTBSCertList returns the TBSCertList exactly as it appeared in the input.
func (l *CertificateList) RawTBSCertList() []byte {
	return slices.Clone(l.rawTBS)
}

// Signature returns the signature bytes.
func (l *CertificateList) Signature() []byte {
	return slices.Clone(l.signature.Bytes)
}

// SignatureAlgorithm returns the signature algorithm identifier.
func (l *CertificateList) SignatureAlgorithm() AlgorithmIdentifier {
	return l.sigAlg.clone()
}

// Encoded returns the DER encoding of the list, exactly as consumed.
func (l *CertificateList) Encoded() []byte {
	return slices.Clone(l.raw)
}

// Extensions returns the list extensions in encoding order.
func (l *CertificateList) Extensions() []*Extension {
	return slices.Clone(l.extensions)
}

// ExtensionValue returns the DER encoded OCTET STRING holding the value of
// the given list extension, nil if the extension is absent.
func (l *CertificateList) ExtensionValue(oid asn1.ObjectIdentifier) []byte {
	return extensionValue(l.extensions, oid)
}

// CRLNumber returns the CRL number, if the extension is present and well
// formed.
func (l *CertificateList) CRLNumber() (*big.Int, bool) {
	n, ok := extensionPayloadOf[*big.Int](l.extensions, OIDExtensionCRLNumber)
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(n), true
}

// String returns a human readable multi-line summary of the list.
func (l *CertificateList) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "X.509 CRL v%d\n", l.version)
	fmt.Fprintf(&b, "Signature Algorithm: %s, OID=%s\n", l.sigAlg.Name(), l.sigAlg.Algorithm)
	fmt.Fprintf(&b, "Issuer: %s\n", l.issuer)
	fmt.Fprintf(&b, "This Update: %s\n", l.thisUpdate.Format(time.RFC3339))
	if next, ok := l.NextUpdate(); ok {
		fmt.Fprintf(&b, "Next Update: %s\n", next.Format(time.RFC3339))
	} else {
		fmt.Fprintf(&b, "Next Update: NOT DEFINED\n")
	}
	if len(l.revoked) == 0 {
		fmt.Fprintf(&b, "NO certificates have been revoked\n")
	} else {
		fmt.Fprintf(&b, "Revoked Certificates: %d\n", len(l.revoked))
		for i, rc := range l.revoked {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, rc)
		}
	}
	if len(l.extensions) > 0 {
		fmt.Fprintf(&b, "CRL Extensions: %d\n", len(l.extensions))
		for i, ext := range l.extensions {
			fmt.Fprintf(&b, "[%d]: %s\n", i+1, describeExtension(ext))
		}
	}
	fmt.Fprintf(&b, "Signature:\n%s", hex.EncodeToString(l.signature.Bytes))
	return b.String()
}

// SerialNumber returns the serial number of the revoked certificate.
func (r *RevokedCertificate) SerialNumber() *big.Int {
	return new(big.Int).Set(r.serial)
}

// RevocationDate returns the date of the revocation.
func (r *RevokedCertificate) RevocationDate() time.Time {
	return r.revocationDate
}

// Encoded returns the DER encoding of the entry.
func (r *RevokedCertificate) Encoded() []byte {
	return slices.Clone(r.raw)
}

// Extensions returns the entry extensions in encoding order.
func (r *RevokedCertificate) Extensions() []*Extension {
	return slices.Clone(r.extensions)
}

// HasExtensions reports whether the entry carries any extension.
func (r *RevokedCertificate) HasExtensions() bool {
	return len(r.extensions) > 0
}

// ExtensionValue returns the DER encoded OCTET STRING holding the value of
// the given entry extension, nil if the extension is absent.
func (r *RevokedCertificate) ExtensionValue(oid asn1.ObjectIdentifier) []byte {
	return extensionValue(r.extensions, oid)
}

// ReasonCode returns the revocation reason, if the extension is present and
// well formed.
func (r *RevokedCertificate) ReasonCode() (ReasonCode, bool) {
	return extensionPayloadOf[ReasonCode](r.extensions, OIDExtensionReasonCode)
}

// InvalidityDate returns the date the key is suspected to have been
// compromised, if the extension is present and well formed.
func (r *RevokedCertificate) InvalidityDate() (time.Time, bool) {
	return extensionPayloadOf[time.Time](r.extensions, OIDExtensionInvalidityDate)
}

// CertificateIssuer returns the issuer of the revoked certificate for
// indirect CRLs, or nil if the extension is absent or malformed.
func (r *RevokedCertificate) CertificateIssuer() []GeneralName {
	names, _ := extensionPayloadOf[[]GeneralName](r.extensions, OIDExtensionCertificateIssuer)
	return cloneGeneralNames(names)
}

// String returns a one line summary of the entry.
func (r *RevokedCertificate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SerialNumber: [%s] On: %s", r.serial.Text(16), r.revocationDate.Format(time.RFC3339))
	if reason, ok := r.ReasonCode(); ok {
		fmt.Fprintf(&b, " Reason: %s", reason)
	}
	return b.String()
}

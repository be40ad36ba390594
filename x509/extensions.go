// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strings"

	"github.com/dark-bio/x509-go/der"
)

// NoPathLimit is reported by BasicConstraints for a CA certificate without a
// path length constraint.
const NoPathLimit = math.MaxInt32

// BasicConstraints is the payload of the basicConstraints extension.
type BasicConstraints struct {
	IsCA    bool
	PathLen *int // Path length constraint, nil if absent
}

// decodeBasicConstraints decodes SEQUENCE { cA BOOLEAN DEFAULT FALSE, pathLenConstraint INTEGER OPTIONAL }.
func decodeBasicConstraints(tlv *der.TLV) (any, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	bc := new(BasicConstraints)
	if len(fields) > 0 && fields[0].IsUniversal(der.TagBoolean) {
		if bc.IsCA, err = fields[0].Boolean(); err != nil {
			return nil, err
		}
		fields = fields[1:]
	}
	if len(fields) > 0 {
		n, err := pathLen(fields[0])
		if err != nil {
			return nil, err
		}
		bc.PathLen = &n
		fields = fields[1:]
	}
	if len(fields) != 0 {
		return nil, errFieldCount
	}
	return bc, nil
}

// pathLen decodes a non-negative path length constraint. Values at or above
// NoPathLimit are clamped to it.
func pathLen(tlv *der.TLV) (int, error) {
	n, err := tlv.Integer()
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative path length %v", der.ErrInvalidValue, n)
	}
	if !n.IsInt64() || n.Int64() >= NoPathLimit {
		return NoPathLimit, nil
	}
	return int(n.Int64()), nil
}

// boundedInt decodes a non-negative INTEGER below NoPathLimit.
func boundedInt(tlv *der.TLV) (int, error) {
	n, err := tlv.Int64()
	if err != nil {
		return 0, err
	}
	if n < 0 || n >= NoPathLimit {
		return 0, fmt.Errorf("%w: integer %d out of range", der.ErrInvalidValue, n)
	}
	return int(n), nil
}

// KeyUsage is the bitset of the keyUsage extension. Bit i of the encoded BIT
// STRING maps to 1<<i.
type KeyUsage uint16

const (
	KeyUsageDigitalSignature KeyUsage = 1 << iota
	KeyUsageContentCommitment
	KeyUsageKeyEncipherment
	KeyUsageDataEncipherment
	KeyUsageKeyAgreement
	KeyUsageCertSign
	KeyUsageCRLSign
	KeyUsageEncipherOnly
	KeyUsageDecipherOnly
)

var keyUsageNames = [...]string{
	"digitalSignature", "contentCommitment", "keyEncipherment", "dataEncipherment",
	"keyAgreement", "keyCertSign", "cRLSign", "encipherOnly", "decipherOnly",
}

// decodeKeyUsage decodes the named bit string. Bits past decipherOnly are
// ignored.
func decodeKeyUsage(tlv *der.TLV) (any, error) {
	bits, err := tlv.BitString()
	if err != nil {
		return nil, err
	}
	var usage KeyUsage
	for i := range keyUsageNames {
		if bits.At(i) != 0 {
			usage |= 1 << i
		}
	}
	return usage, nil
}

// Has reports whether all the given usages are set.
func (k KeyUsage) Has(usage KeyUsage) bool {
	return k&usage == usage
}

// Bits returns the usages as a positional flag array, digitalSignature first.
func (k KeyUsage) Bits() []bool {
	out := make([]bool, len(keyUsageNames))
	for i := range out {
		out[i] = k&(1<<i) != 0
	}
	return out
}

// String implements fmt.Stringer, listing the set usages by name.
func (k KeyUsage) String() string {
	var names []string
	for i, name := range keyUsageNames {
		if k&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// decodeExtKeyUsage decodes SEQUENCE OF KeyPurposeId.
func decodeExtKeyUsage(tlv *der.TLV) (any, error) {
	items, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	list := &OIDList{oids: make([]asn1.ObjectIdentifier, 0, len(items))}
	for _, item := range items {
		oid, err := item.ObjectIdentifier()
		if err != nil {
			return nil, err
		}
		list.oids = append(list.oids, oid)
	}
	return list, nil
}

// decodeCertificatePolicies decodes SEQUENCE OF PolicyInformation, keeping
// only the policy identifiers. Qualifiers are skipped.
func decodeCertificatePolicies(tlv *der.TLV) (any, error) {
	items, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	list := &OIDList{oids: make([]asn1.ObjectIdentifier, 0, len(items))}
	for _, item := range items {
		fields, err := item.Sequence()
		if err != nil {
			return nil, err
		}
		if len(fields) < 1 || len(fields) > 2 {
			return nil, errFieldCount
		}
		oid, err := fields[0].ObjectIdentifier()
		if err != nil {
			return nil, err
		}
		if len(fields) == 2 {
			if _, err := fields[1].Sequence(); err != nil {
				return nil, err
			}
		}
		list.oids = append(list.oids, oid)
	}
	return list, nil
}

// decodeGeneralNamesExt decodes the GeneralNames carried by the alternative
// name and certificate issuer extensions.
func decodeGeneralNamesExt(tlv *der.TLV) (any, error) {
	return parseGeneralNames(tlv)
}

// AuthorityKeyIdentifier is the payload of the authorityKeyIdentifier
// extension. Every field is optional.
type AuthorityKeyIdentifier struct {
	KeyID        []byte
	Issuer       []GeneralName
	SerialNumber *big.Int
}

// decodeAuthorityKeyID decodes SEQUENCE { [0] KeyIdentifier, [1] GeneralNames, [2] CertificateSerialNumber },
// all implicitly tagged and optional.
func decodeAuthorityKeyID(tlv *der.TLV) (any, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	aki := new(AuthorityKeyIdentifier)

	next := 0
	for _, field := range fields {
		if field.Class != der.ClassContextSpecific || field.Tag < next || field.Tag > 2 {
			return nil, fmt.Errorf("%w: authority key identifier field [%d]", errUnexpectedField, field.Tag)
		}
		next = field.Tag + 1

		switch field.Tag {
		case 0:
			if field.Constructed {
				return nil, errUnexpectedField
			}
			aki.KeyID = field.Content
		case 1:
			if !field.Constructed {
				return nil, errUnexpectedField
			}
			if aki.Issuer, err = parseGeneralNameList(field.Children); err != nil {
				return nil, err
			}
		case 2:
			if field.Constructed {
				return nil, errUnexpectedField
			}
			if aki.SerialNumber, err = field.Implicit(der.TagInteger).Integer(); err != nil {
				return nil, err
			}
		}
	}
	return aki, nil
}

// clone creates a deep copy of the identifier for handing out to callers.
func (a *AuthorityKeyIdentifier) clone() *AuthorityKeyIdentifier {
	out := &AuthorityKeyIdentifier{
		KeyID:  slices.Clone(a.KeyID),
		Issuer: cloneGeneralNames(a.Issuer),
	}
	if a.SerialNumber != nil {
		out.SerialNumber = new(big.Int).Set(a.SerialNumber)
	}
	return out
}

// SubjectKeyIdentifier is the payload of the subjectKeyIdentifier extension.
type SubjectKeyIdentifier []byte

// decodeSubjectKeyID decodes a KeyIdentifier OCTET STRING.
func decodeSubjectKeyID(tlv *der.TLV) (any, error) {
	id, err := tlv.OctetString()
	if err != nil {
		return nil, err
	}
	return SubjectKeyIdentifier(id), nil
}

// DistributionPoint is a single entry of the cRLDistributionPoints extension.
type DistributionPoint struct {
	FullName     []GeneralName  // Locations of the CRL
	RelativeName RDN            // Name relative to the CRL issuer
	Reasons      asn1.BitString // Revocation reasons covered, empty if all
	CRLIssuer    []GeneralName  // Issuer of the CRL, if not the certificate issuer
}

// CRLDistributionPoints is the payload of the cRLDistributionPoints extension.
type CRLDistributionPoints []DistributionPoint

// decodeCRLDistributionPoints decodes SEQUENCE OF DistributionPoint.
func decodeCRLDistributionPoints(tlv *der.TLV) (any, error) {
	items, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	points := make(CRLDistributionPoints, 0, len(items))
	for _, item := range items {
		point, err := parseDistributionPoint(item)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

// parseDistributionPoint decodes SEQUENCE { [0] DistributionPointName, [1] ReasonFlags, [2] GeneralNames }.
// The name is a CHOICE and thus explicitly tagged, the rest are implicit.
func parseDistributionPoint(tlv *der.TLV) (DistributionPoint, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return DistributionPoint{}, err
	}
	var point DistributionPoint

	next := 0
	for _, field := range fields {
		if field.Class != der.ClassContextSpecific || field.Tag < next || field.Tag > 2 {
			return DistributionPoint{}, fmt.Errorf("%w: distribution point field [%d]", errUnexpectedField, field.Tag)
		}
		next = field.Tag + 1

		switch field.Tag {
		case 0:
			name, err := field.Explicit(0)
			if err != nil {
				return DistributionPoint{}, err
			}
			if err := parseDistributionPointName(name, &point); err != nil {
				return DistributionPoint{}, err
			}
		case 1:
			if field.Constructed {
				return DistributionPoint{}, errUnexpectedField
			}
			if point.Reasons, err = field.Implicit(der.TagBitString).BitString(); err != nil {
				return DistributionPoint{}, err
			}
		case 2:
			if !field.Constructed {
				return DistributionPoint{}, errUnexpectedField
			}
			if point.CRLIssuer, err = parseGeneralNameList(field.Children); err != nil {
				return DistributionPoint{}, err
			}
		}
	}
	return point, nil
}

// parseDistributionPointName decodes CHOICE { [0] GeneralNames, [1] RelativeDistinguishedName }.
func parseDistributionPointName(tlv *der.TLV, point *DistributionPoint) error {
	if tlv.Class != der.ClassContextSpecific || !tlv.Constructed {
		return errUnexpectedField
	}
	switch tlv.Tag {
	case 0:
		names, err := parseGeneralNameList(tlv.Children)
		if err != nil {
			return err
		}
		point.FullName = names
		return nil

	case 1:
		if len(tlv.Children) == 0 {
			return errEmptyRDN
		}
		for _, attr := range tlv.Children {
			atv, err := parseAttribute(attr)
			if err != nil {
				return err
			}
			point.RelativeName = append(point.RelativeName, atv)
		}
		return nil
	}
	return fmt.Errorf("%w: distribution point name [%d]", errUnexpectedField, tlv.Tag)
}

// PolicyConstraints is the payload of the policyConstraints extension.
type PolicyConstraints struct {
	RequireExplicitPolicy *int // Certificates until an explicit policy is required, nil if absent
	InhibitPolicyMapping  *int // Certificates until policy mapping is inhibited, nil if absent
}

// decodePolicyConstraints decodes SEQUENCE { [0] SkipCerts, [1] SkipCerts },
// both implicitly tagged and optional.
func decodePolicyConstraints(tlv *der.TLV) (any, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	pc := new(PolicyConstraints)

	next := 0
	for _, field := range fields {
		if field.Class != der.ClassContextSpecific || field.Constructed || field.Tag < next || field.Tag > 1 {
			return nil, fmt.Errorf("%w: policy constraints field [%d]", errUnexpectedField, field.Tag)
		}
		next = field.Tag + 1

		n, err := boundedInt(field.Implicit(der.TagInteger))
		if err != nil {
			return nil, err
		}
		if field.Tag == 0 {
			pc.RequireExplicitPolicy = &n
		} else {
			pc.InhibitPolicyMapping = &n
		}
	}
	return pc, nil
}

// decodeCRLNumber decodes the CRLNumber INTEGER.
func decodeCRLNumber(tlv *der.TLV) (any, error) {
	n, err := tlv.Integer()
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative crl number", der.ErrInvalidValue)
	}
	return n, nil
}

// ReasonCode is the payload of the CRL entry reasonCode extension.
type ReasonCode int

const (
	ReasonUnspecified          ReasonCode = 0
	ReasonKeyCompromise        ReasonCode = 1
	ReasonCACompromise         ReasonCode = 2
	ReasonAffiliationChanged   ReasonCode = 3
	ReasonSuperseded           ReasonCode = 4
	ReasonCessationOfOperation ReasonCode = 5
	ReasonCertificateHold      ReasonCode = 6
	ReasonRemoveFromCRL        ReasonCode = 8
	ReasonPrivilegeWithdrawn   ReasonCode = 9
	ReasonAACompromise         ReasonCode = 10
)

var reasonNames = map[ReasonCode]string{
	ReasonUnspecified:          "unspecified",
	ReasonKeyCompromise:        "keyCompromise",
	ReasonCACompromise:         "cACompromise",
	ReasonAffiliationChanged:   "affiliationChanged",
	ReasonSuperseded:           "superseded",
	ReasonCessationOfOperation: "cessationOfOperation",
	ReasonCertificateHold:      "certificateHold",
	ReasonRemoveFromCRL:        "removeFromCRL",
	ReasonPrivilegeWithdrawn:   "privilegeWithdrawn",
	ReasonAACompromise:         "aACompromise",
}

// String implements fmt.Stringer.
func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ReasonCode(%d)", int(r))
}

// decodeReasonCode decodes the CRLReason ENUMERATED.
func decodeReasonCode(tlv *der.TLV) (any, error) {
	n, err := tlv.Enumerated()
	if err != nil {
		return nil, err
	}
	if _, ok := reasonNames[ReasonCode(n)]; !ok {
		return nil, fmt.Errorf("%w: reason code %d", der.ErrInvalidValue, n)
	}
	return ReasonCode(n), nil
}

// decodeInvalidityDate decodes the invalidityDate GeneralizedTime.
func decodeInvalidityDate(tlv *der.TLV) (any, error) {
	if err := tlv.Expect(der.ClassUniversal, der.TagGeneralizedTime, false); err != nil {
		return nil, err
	}
	t, err := tlv.Time()
	if err != nil {
		return nil, err
	}
	return t, nil
}

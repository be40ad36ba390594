// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"strconv"
	"strings"
)

// Certificate and CRL extension identifiers.
var (
	OIDExtensionSubjectKeyID          = asn1.ObjectIdentifier{2, 5, 29, 14}
	OIDExtensionKeyUsage              = asn1.ObjectIdentifier{2, 5, 29, 15}
	OIDExtensionSubjectAltName        = asn1.ObjectIdentifier{2, 5, 29, 17}
	OIDExtensionIssuerAltName         = asn1.ObjectIdentifier{2, 5, 29, 18}
	OIDExtensionBasicConstraints      = asn1.ObjectIdentifier{2, 5, 29, 19}
	OIDExtensionCRLNumber             = asn1.ObjectIdentifier{2, 5, 29, 20}
	OIDExtensionReasonCode            = asn1.ObjectIdentifier{2, 5, 29, 21}
	OIDExtensionInvalidityDate        = asn1.ObjectIdentifier{2, 5, 29, 24}
	OIDExtensionCertificateIssuer     = asn1.ObjectIdentifier{2, 5, 29, 29}
	OIDExtensionNameConstraints       = asn1.ObjectIdentifier{2, 5, 29, 30}
	OIDExtensionCRLDistributionPoints = asn1.ObjectIdentifier{2, 5, 29, 31}
	OIDExtensionCertificatePolicies   = asn1.ObjectIdentifier{2, 5, 29, 32}
	OIDExtensionPolicyMappings        = asn1.ObjectIdentifier{2, 5, 29, 33}
	OIDExtensionAuthorityKeyID        = asn1.ObjectIdentifier{2, 5, 29, 35}
	OIDExtensionPolicyConstraints     = asn1.ObjectIdentifier{2, 5, 29, 36}
	OIDExtensionExtKeyUsage           = asn1.ObjectIdentifier{2, 5, 29, 37}
	OIDExtensionInhibitAnyPolicy      = asn1.ObjectIdentifier{2, 5, 29, 54}
)

// Signature algorithm identifiers.
var (
	OIDSignatureMD2WithRSA      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 2}
	OIDSignatureMD5WithRSA      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}
	OIDSignatureSHA1WithRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	OIDSignatureRSAPSS          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	OIDSignatureSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDSignatureSHA384WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	OIDSignatureSHA512WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	OIDSignatureDSAWithSHA1     = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 3}
	OIDSignatureDSAWithSHA256   = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}
	OIDSignatureECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	OIDSignatureECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDSignatureECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	OIDSignatureECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
	OIDSignatureEd25519         = asn1.ObjectIdentifier{1, 3, 101, 112}
	OIDSignatureEd448           = asn1.ObjectIdentifier{1, 3, 101, 113}
	OIDSignatureMLDSA44         = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 17}
	OIDSignatureMLDSA65         = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}
	OIDSignatureMLDSA87         = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}
	OIDSignatureMLDSA65Ed25519  = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 6, 48}
)

// Public key algorithm identifiers. The EdDSA, ML-DSA and composite keys
// share their identifier with the signature algorithm.
var (
	OIDPublicKeyRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	OIDPublicKeyDSA   = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	OIDPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
)

// signatureNames maps signature algorithm identifiers to their display names.
var signatureNames = map[string]string{
	OIDSignatureMD2WithRSA.String():      "MD2withRSA",
	OIDSignatureMD5WithRSA.String():      "MD5withRSA",
	OIDSignatureSHA1WithRSA.String():     "SHA1withRSA",
	OIDSignatureRSAPSS.String():          "RSASSA-PSS",
	OIDSignatureSHA256WithRSA.String():   "SHA256withRSA",
	OIDSignatureSHA384WithRSA.String():   "SHA384withRSA",
	OIDSignatureSHA512WithRSA.String():   "SHA512withRSA",
	OIDSignatureDSAWithSHA1.String():     "SHA1withDSA",
	OIDSignatureDSAWithSHA256.String():   "SHA256withDSA",
	OIDSignatureECDSAWithSHA1.String():   "SHA1withECDSA",
	OIDSignatureECDSAWithSHA256.String(): "SHA256withECDSA",
	OIDSignatureECDSAWithSHA384.String(): "SHA384withECDSA",
	OIDSignatureECDSAWithSHA512.String(): "SHA512withECDSA",
	OIDSignatureEd25519.String():         "Ed25519",
	OIDSignatureEd448.String():           "Ed448",
	OIDSignatureMLDSA44.String():         "ML-DSA-44",
	OIDSignatureMLDSA65.String():         "ML-DSA-65",
	OIDSignatureMLDSA87.String():         "ML-DSA-87",
	OIDSignatureMLDSA65Ed25519.String():  "MLDSA65-Ed25519-SHA512",
	OIDPublicKeyRSA.String():             "RSA",
	OIDPublicKeyDSA.String():             "DSA",
	OIDPublicKeyECDSA.String():           "EC",
}

// Attribute type identifiers used in distinguished names.
var (
	oidCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidSerialNumber       = asn1.ObjectIdentifier{2, 5, 4, 5}
	oidCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidLocality           = asn1.ObjectIdentifier{2, 5, 4, 7}
	oidProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	oidStreetAddress      = asn1.ObjectIdentifier{2, 5, 4, 9}
	oidOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	oidDomainComponent    = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}
	oidUserID             = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}
	oidEmailAddress       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// attributeKeywords are the RFC 2253 keywords, plus a few widely used ones.
var attributeKeywords = map[string]string{
	oidCommonName.String():         "CN",
	oidSerialNumber.String():       "SERIALNUMBER",
	oidCountry.String():            "C",
	oidLocality.String():           "L",
	oidProvince.String():           "ST",
	oidStreetAddress.String():      "STREET",
	oidOrganization.String():       "O",
	oidOrganizationalUnit.String(): "OU",
	oidDomainComponent.String():    "DC",
	oidUserID.String():             "UID",
	oidEmailAddress.String():       "EMAILADDRESS",
}

// ParseOID parses a dotted decimal object identifier, as produced by
// asn1.ObjectIdentifier.String.
func ParseOID(s string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, malformed("parse oid", errFieldCount)
	}
	oid := make(asn1.ObjectIdentifier, len(parts))
	for i, part := range parts {
		// Reject signs and leading zeroes, only the canonical form is accepted
		if part == "" || part[0] == '+' || part[0] == '-' || (len(part) > 1 && part[0] == '0') {
			return nil, malformed("parse oid", errUnexpectedField)
		}
		n, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return nil, malformed("parse oid", err)
		}
		oid[i] = int(n)
	}
	if oid[0] > 2 || (oid[0] < 2 && oid[1] >= 40) {
		return nil, malformed("parse oid", errUnexpectedField)
	}
	return oid, nil
}

// MustParseOID parses a dotted decimal object identifier.
// It panics if the parsing fails.
func MustParseOID(s string) asn1.ObjectIdentifier {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

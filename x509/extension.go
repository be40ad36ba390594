// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/dark-bio/x509-go/der"
)

// Extension is a single certificate, CRL or CRL entry extension. The value is
// interpreted lazily, the first time its payload is requested.
type Extension struct {
	id       asn1.ObjectIdentifier
	critical bool
	value    []byte // Content of the OCTET STRING
	encoded  []byte // Full encoding of the OCTET STRING

	payload atomic.Pointer[extensionPayload]
}

// extensionPayload is the memoised outcome of interpreting an extension.
type extensionPayload struct {
	value any
	err   error
}

// extensionDecoder interprets the DER value of a recognised extension.
type extensionDecoder func(tlv *der.TLV) (any, error)

// extensionDecoders maps recognised extension identifiers to their grammar.
var extensionDecoders = map[string]extensionDecoder{
	OIDExtensionBasicConstraints.String():      decodeBasicConstraints,
	OIDExtensionKeyUsage.String():              decodeKeyUsage,
	OIDExtensionExtKeyUsage.String():           decodeExtKeyUsage,
	OIDExtensionSubjectAltName.String():        decodeGeneralNamesExt,
	OIDExtensionIssuerAltName.String():         decodeGeneralNamesExt,
	OIDExtensionAuthorityKeyID.String():        decodeAuthorityKeyID,
	OIDExtensionSubjectKeyID.String():          decodeSubjectKeyID,
	OIDExtensionCRLDistributionPoints.String(): decodeCRLDistributionPoints,
	OIDExtensionPolicyConstraints.String():     decodePolicyConstraints,
	OIDExtensionCertificatePolicies.String():   decodeCertificatePolicies,
	OIDExtensionCRLNumber.String():             decodeCRLNumber,
	OIDExtensionReasonCode.String():            decodeReasonCode,
	OIDExtensionInvalidityDate.String():        decodeInvalidityDate,
	OIDExtensionCertificateIssuer.String():     decodeGeneralNamesExt,
}

// parseExtensions decodes a SEQUENCE OF Extension, rejecting duplicates.
func parseExtensions(tlv *der.TLV) ([]*Extension, error) {
	items, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	var (
		exts = make([]*Extension, 0, len(items))
		seen = make(map[string]bool, len(items))
	)
	for _, item := range items {
		ext, err := parseExtension(item)
		if err != nil {
			return nil, err
		}
		key := ext.id.String()
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", errDuplicateExt, key)
		}
		seen[key] = true
		exts = append(exts, ext)
	}
	return exts, nil
}

// parseExtension decodes SEQUENCE { extnID OID, critical BOOLEAN DEFAULT FALSE, extnValue OCTET STRING }.
func parseExtension(tlv *der.TLV) (*Extension, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 || len(fields) > 3 {
		return nil, errFieldCount
	}
	id, err := fields[0].ObjectIdentifier()
	if err != nil {
		return nil, err
	}
	ext := &Extension{id: id}
	if len(fields) == 3 {
		if ext.critical, err = fields[1].Boolean(); err != nil {
			return nil, err
		}
	}
	last := fields[len(fields)-1]
	if ext.value, err = last.OctetString(); err != nil {
		return nil, err
	}
	ext.encoded = last.Raw
	return ext, nil
}

// OID returns the identifier of the extension.
func (e *Extension) OID() asn1.ObjectIdentifier {
	return slices.Clone(e.id)
}

// Critical reports whether the extension is marked critical.
func (e *Extension) Critical() bool {
	return e.critical
}

// Value returns the content of the extension's OCTET STRING.
func (e *Extension) Value() []byte {
	return slices.Clone(e.value)
}

// Payload returns the interpreted value of the extension: nil for unknown
// (opaque) extensions, a typed value for recognised ones, or an
// ExtensionDecodingAnomaly error if a recognised value is malformed.
//
// The result is computed once. Concurrent first callers may each compute it,
// but all of them observe the same stored outcome.
func (e *Extension) Payload() (any, error) {
	if p := e.payload.Load(); p != nil {
		return p.value, p.err
	}
	e.payload.CompareAndSwap(nil, e.interpret())

	p := e.payload.Load()
	return p.value, p.err
}

// interpret runs the grammar matching the extension identifier.
func (e *Extension) interpret() *extensionPayload {
	decode, ok := extensionDecoders[e.id.String()]
	if !ok {
		return &extensionPayload{}
	}
	tlv, err := der.Parse(e.value)
	if err == nil {
		var value any
		if value, err = decode(tlv); err == nil {
			return &extensionPayload{value: value}
		}
	}
	return &extensionPayload{err: &CertificateError{
		Kind: ExtensionDecodingAnomaly,
		Op:   "decode extension " + e.id.String(),
		Err:  err,
	}}
}

// Opaque reports whether the extension has no interpreted payload, either
// because it is unknown or because its value is malformed.
func (e *Extension) Opaque() bool {
	value, err := e.Payload()
	return value == nil || err != nil
}

// findExtension returns the extension with the given identifier, or nil.
func findExtension(exts []*Extension, oid asn1.ObjectIdentifier) *Extension {
	for _, ext := range exts {
		if ext.id.Equal(oid) {
			return ext
		}
	}
	return nil
}

// extensionPayloadOf returns the interpreted payload of an extension if it
// is present and well formed.
func extensionPayloadOf[T any](exts []*Extension, oid asn1.ObjectIdentifier) (T, bool) {
	var zero T

	ext := findExtension(exts, oid)
	if ext == nil {
		return zero, false
	}
	value, err := ext.Payload()
	if err != nil {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}

// extensionOIDs returns the identifiers of the extensions with the given
// criticality, nil if there are none.
func extensionOIDs(exts []*Extension, critical bool) []asn1.ObjectIdentifier {
	var oids []asn1.ObjectIdentifier
	for _, ext := range exts {
		if ext.critical == critical {
			oids = append(oids, slices.Clone(ext.id))
		}
	}
	return oids
}

// extensionValue returns the full OCTET STRING encoding of an extension
// value, nil if the extension is absent.
func extensionValue(exts []*Extension, oid asn1.ObjectIdentifier) []byte {
	if ext := findExtension(exts, oid); ext != nil {
		return slices.Clone(ext.encoded)
	}
	return nil
}

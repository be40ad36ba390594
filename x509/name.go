// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"encoding/hex"
	"slices"
	"strings"
	"unicode"

	"github.com/dark-bio/x509-go/der"
)

// AttributeTypeAndValue is a single attribute of a distinguished name.
type AttributeTypeAndValue struct {
	Type  asn1.ObjectIdentifier // Attribute type, e.g. 2.5.4.3 for CN
	Tag   int                   // Universal tag of the value
	Value string                // Decoded text, or "#" and the hex encoding for non-string values
	Raw   []byte                // Full encoding of the value

	text bool // Whether Value was decoded from a character string
}

// RDN is a relative distinguished name, a set of attributes.
type RDN []AttributeTypeAndValue

// Name is a distinguished name, as an ordered sequence of RDNs from the root
// downwards.
type Name struct {
	RDNs []RDN
	raw  []byte
}

// parseName decodes a Name from its SEQUENCE OF SET OF AttributeTypeAndValue.
func parseName(tlv *der.TLV) (Name, error) {
	sets, err := tlv.Sequence()
	if err != nil {
		return Name{}, err
	}
	name := Name{raw: tlv.Raw}
	for _, set := range sets {
		attrs, err := set.Set()
		if err != nil {
			return Name{}, err
		}
		if len(attrs) == 0 {
			return Name{}, errEmptyRDN
		}
		rdn := make(RDN, 0, len(attrs))
		for _, attr := range attrs {
			atv, err := parseAttribute(attr)
			if err != nil {
				return Name{}, err
			}
			rdn = append(rdn, atv)
		}
		name.RDNs = append(name.RDNs, rdn)
	}
	return name, nil
}

// parseAttribute decodes a single SEQUENCE { type OID, value ANY }.
func parseAttribute(tlv *der.TLV) (AttributeTypeAndValue, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return AttributeTypeAndValue{}, err
	}
	if len(fields) != 2 {
		return AttributeTypeAndValue{}, errFieldCount
	}
	oid, err := fields[0].ObjectIdentifier()
	if err != nil {
		return AttributeTypeAndValue{}, err
	}
	atv := AttributeTypeAndValue{
		Type: oid,
		Tag:  fields[1].Tag,
		Raw:  fields[1].Raw,
	}
	if fields[1].IsString() {
		if atv.Value, err = fields[1].Text(); err != nil {
			return AttributeTypeAndValue{}, err
		}
		atv.text = true
	} else {
		atv.Value = "#" + hex.EncodeToString(fields[1].Raw)
	}
	return atv, nil
}

// clone creates a deep copy of the name for handing out to callers.
func (n Name) clone() Name {
	out := Name{raw: slices.Clone(n.raw)}
	if n.RDNs != nil {
		out.RDNs = make([]RDN, len(n.RDNs))
	}
	for i, rdn := range n.RDNs {
		out.RDNs[i] = make(RDN, len(rdn))
		for j, atv := range rdn {
			atv.Type = slices.Clone(atv.Type)
			atv.Raw = slices.Clone(atv.Raw)
			out.RDNs[i][j] = atv
		}
	}
	return out
}

// Raw returns the DER encoding of the name.
func (n Name) Raw() []byte {
	return slices.Clone(n.raw)
}

// String returns the RFC 2253 form of the name, most specific RDN first.
func (n Name) String() string {
	return n.format(false)
}

// Canonical returns the canonical form of the name, used for comparisons:
// lowercase keywords and values, whitespace trimmed and folded, and the
// attributes of multi-valued RDNs sorted.
func (n Name) Canonical() string {
	return n.format(true)
}

// Equal reports whether two names are the same. String values are compared
// case-insensitively with whitespace folded, other values by encoding.
func (n Name) Equal(other Name) bool {
	return n.Canonical() == other.Canonical()
}

// format renders the name in RFC 2253 order, either as is or canonicalised.
func (n Name) format(canonical bool) string {
	var b strings.Builder
	for i := len(n.RDNs) - 1; i >= 0; i-- {
		if i != len(n.RDNs)-1 {
			b.WriteByte(',')
		}
		parts := make([]string, len(n.RDNs[i]))
		for j, atv := range n.RDNs[i] {
			parts[j] = atv.format(canonical)
		}
		if canonical {
			slices.Sort(parts)
		}
		b.WriteString(strings.Join(parts, "+"))
	}
	return b.String()
}

// format renders a single type=value pair.
func (atv AttributeTypeAndValue) format(canonical bool) string {
	key, ok := attributeKeywords[atv.Type.String()]
	if !ok {
		key = atv.Type.String()
	}
	if canonical {
		key = strings.ToLower(key)
	}
	if !atv.text {
		return key + "=" + atv.Value
	}
	value := atv.Value
	if canonical {
		value = strings.ToLower(strings.Join(strings.FieldsFunc(value, unicode.IsSpace), " "))
	}
	return key + "=" + escapeValue(value)
}

// escapeValue applies the RFC 2253 string escaping rules.
func escapeValue(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case strings.ContainsRune(",+\"\\<>;", r):
			b.WriteByte('\\')
		case i == 0 && (r == '#' || r == ' '):
			b.WriteByte('\\')
		case i == len(s)-1 && r == ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

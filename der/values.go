// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// classNames is used to render tags in error messages.
var classNames = [...]string{"UNIVERSAL", "APPLICATION", "CONTEXT", "PRIVATE"}

// describe renders a tag as e.g. "[UNIVERSAL 16] constructed".
func describe(class Class, tag int, constructed bool) string {
	form := "primitive"
	if constructed {
		form = "constructed"
	}
	return fmt.Sprintf("[%s %d] %s", classNames[class&3], tag, form)
}

// Is reports whether the value carries the given class and tag number.
func (t *TLV) Is(class Class, tag int) bool {
	return t.Class == class && t.Tag == tag
}

// IsUniversal reports whether the value is of the given universal type.
func (t *TLV) IsUniversal(tag int) bool {
	return t.Is(ClassUniversal, tag)
}

// IsContext reports whether the value is tagged [tag] in the context class.
func (t *TLV) IsContext(tag int) bool {
	return t.Is(ClassContextSpecific, tag)
}

// Expect checks the class, tag number and form of the value.
func (t *TLV) Expect(class Class, tag int, constructed bool) error {
	if t.Class != class || t.Tag != tag || t.Constructed != constructed {
		return fmt.Errorf("%w: %s, want %s (offset %d)", ErrUnexpectedTag,
			describe(t.Class, t.Tag, t.Constructed), describe(class, tag, constructed), t.Offset)
	}
	return nil
}

// Sequence returns the ordered elements of a SEQUENCE.
func (t *TLV) Sequence() ([]*TLV, error) {
	if err := t.Expect(ClassUniversal, TagSequence, true); err != nil {
		return nil, err
	}
	return t.Children, nil
}

// Set returns the elements of a SET in encoding order.
func (t *TLV) Set() ([]*TLV, error) {
	if err := t.Expect(ClassUniversal, TagSet, true); err != nil {
		return nil, err
	}
	return t.Children, nil
}

// Explicit unwraps an explicitly tagged [tag] value, which must hold exactly
// one nested value.
func (t *TLV) Explicit(tag int) (*TLV, error) {
	if err := t.Expect(ClassContextSpecific, tag, true); err != nil {
		return nil, err
	}
	if len(t.Children) != 1 {
		return nil, fmt.Errorf("%w: explicit [%d] holds %d values (offset %d)", ErrInvalidValue, tag, len(t.Children), t.Offset)
	}
	return t.Children[0], nil
}

// Implicit reinterprets an implicitly tagged value as the universal type it
// replaces, so that the typed readers can be used on it. The returned node
// shares the content and children of the original, but its Raw field holds
// a fresh encoding under the universal tag.
func (t *TLV) Implicit(tag int) *TLV {
	id := cbasn1.Tag(tag)
	if t.Constructed {
		id = id.Constructed()
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(id, func(b *cryptobyte.Builder) {
		b.AddBytes(t.Content)
	})
	raw := b.BytesOrPanic()

	return &TLV{
		Class:       ClassUniversal,
		Constructed: t.Constructed,
		Tag:         tag,
		Offset:      t.Offset,
		Raw:         raw,
		Content:     raw[len(raw)-len(t.Content):],
		Children:    t.Children,
	}
}

// primitive returns the full encoding of a primitive universal value of the
// given type, ready to be consumed by a cryptobyte reader.
func (t *TLV) primitive(tag int) (cryptobyte.String, error) {
	if err := t.Expect(ClassUniversal, tag, false); err != nil {
		return nil, err
	}
	return cryptobyte.String(t.Raw), nil
}

// invalid creates an error for a value whose content octets are malformed.
func (t *TLV) invalid(kind string) error {
	return fmt.Errorf("%w: %s (offset %d)", ErrInvalidValue, kind, t.Offset)
}

// Boolean decodes a BOOLEAN, which must be a single 0x00 or 0xFF octet.
func (t *TLV) Boolean() (bool, error) {
	s, err := t.primitive(TagBoolean)
	if err != nil {
		return false, err
	}
	var out bool
	if !s.ReadASN1Boolean(&out) {
		return false, t.invalid("boolean")
	}
	return out, nil
}

// Integer decodes an arbitrary precision INTEGER, rejecting redundant leading
// sign octets.
func (t *TLV) Integer() (*big.Int, error) {
	s, err := t.primitive(TagInteger)
	if err != nil {
		return nil, err
	}
	out := new(big.Int)
	if !s.ReadASN1Integer(out) {
		return nil, t.invalid("integer")
	}
	return out, nil
}

// Int64 decodes an INTEGER which must fit into 64 bits.
func (t *TLV) Int64() (int64, error) {
	s, err := t.primitive(TagInteger)
	if err != nil {
		return 0, err
	}
	var out int64
	if !s.ReadASN1Integer(&out) {
		return 0, t.invalid("integer")
	}
	return out, nil
}

// Enumerated decodes an ENUMERATED value.
func (t *TLV) Enumerated() (int, error) {
	s, err := t.primitive(TagEnumerated)
	if err != nil {
		return 0, err
	}
	var out int
	if !s.ReadASN1Enum(&out) {
		return 0, t.invalid("enumerated")
	}
	return out, nil
}

// BitString decodes a BIT STRING. The unused bit count must be below 8 and
// the padding bits must be zero.
func (t *TLV) BitString() (asn1.BitString, error) {
	s, err := t.primitive(TagBitString)
	if err != nil {
		return asn1.BitString{}, err
	}
	var out asn1.BitString
	if !s.ReadASN1BitString(&out) {
		return asn1.BitString{}, t.invalid("bit string")
	}
	return out, nil
}

// OctetString returns the content of an OCTET STRING.
func (t *TLV) OctetString() ([]byte, error) {
	if err := t.Expect(ClassUniversal, TagOctetString, false); err != nil {
		return nil, err
	}
	return t.Content, nil
}

// Null checks that the value is an empty NULL.
func (t *TLV) Null() error {
	if err := t.Expect(ClassUniversal, TagNull, false); err != nil {
		return err
	}
	if len(t.Content) != 0 {
		return t.invalid("null")
	}
	return nil
}

// ObjectIdentifier decodes an OBJECT IDENTIFIER from its base-128 components.
func (t *TLV) ObjectIdentifier() (asn1.ObjectIdentifier, error) {
	s, err := t.primitive(TagOID)
	if err != nil {
		return nil, err
	}
	var out asn1.ObjectIdentifier
	if !s.ReadASN1ObjectIdentifier(&out) {
		return nil, t.invalid("object identifier")
	}
	return out, nil
}

// Time decodes a UTCTime or GeneralizedTime into an absolute instant in UTC.
// Two digit UTCTime years 50-99 map to 1950-1999, the rest to 2000-2049.
func (t *TLV) Time() (time.Time, error) {
	if t.Class != ClassUniversal || t.Constructed {
		return time.Time{}, t.Expect(ClassUniversal, TagUTCTime, false)
	}
	var (
		s   = cryptobyte.String(t.Raw)
		out time.Time
		ok  bool
	)
	switch t.Tag {
	case TagUTCTime:
		ok = s.ReadASN1UTCTime(&out)
	case TagGeneralizedTime:
		ok = s.ReadASN1GeneralizedTime(&out)
	default:
		return time.Time{}, t.Expect(ClassUniversal, TagUTCTime, false)
	}
	if !ok {
		return time.Time{}, t.invalid("time")
	}
	return out.UTC(), nil
}

// Text decodes one of the character string types used in names.
func (t *TLV) Text() (string, error) {
	if t.Class != ClassUniversal || t.Constructed {
		return "", t.Expect(ClassUniversal, TagUTF8String, false)
	}
	c := t.Content

	switch t.Tag {
	case TagUTF8String:
		if !utf8.Valid(c) {
			return "", t.invalid("utf8 string")
		}
		return string(c), nil

	case TagPrintableString:
		for _, b := range c {
			if !isPrintable(b) {
				return "", t.invalid("printable string")
			}
		}
		return string(c), nil

	case TagIA5String, TagVisibleString, TagNumericString:
		for _, b := range c {
			if b >= utf8.RuneSelf {
				return "", t.invalid("ascii string")
			}
		}
		return string(c), nil

	case TagT61String:
		// Treated as ISO 8859-1, like every other decoder in the wild
		runes := make([]rune, len(c))
		for i, b := range c {
			runes[i] = rune(b)
		}
		return string(runes), nil

	case TagBMPString:
		if len(c)%2 != 0 {
			return "", t.invalid("bmp string")
		}
		units := make([]uint16, len(c)/2)
		for i := range units {
			units[i] = uint16(c[2*i])<<8 | uint16(c[2*i+1])
		}
		return string(utf16.Decode(units)), nil

	case TagUniversalString:
		if len(c)%4 != 0 {
			return "", t.invalid("universal string")
		}
		runes := make([]rune, len(c)/4)
		for i := range runes {
			r := rune(c[4*i])<<24 | rune(c[4*i+1])<<16 | rune(c[4*i+2])<<8 | rune(c[4*i+3])
			if !utf8.ValidRune(r) {
				return "", t.invalid("universal string")
			}
			runes[i] = r
		}
		return string(runes), nil
	}
	return "", fmt.Errorf("%w: %s is not a string type (offset %d)", ErrUnexpectedTag, describe(t.Class, t.Tag, t.Constructed), t.Offset)
}

// IsString reports whether the value is one of the character string types
// understood by Text.
func (t *TLV) IsString() bool {
	if t.Class != ClassUniversal || t.Constructed {
		return false
	}
	switch t.Tag {
	case TagUTF8String, TagPrintableString, TagIA5String, TagVisibleString,
		TagNumericString, TagT61String, TagBMPString, TagUniversalString:
		return true
	}
	return false
}

// isPrintable reports whether a byte belongs to the PrintableString alphabet.
// The '*' and '&' characters are not part of it, but are common enough in
// issued certificates to be tolerated.
func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' || b == ':' || b == '=' || b == '?' ||
		b == '*' || b == '&'
}

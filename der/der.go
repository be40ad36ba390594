// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package der implements a strict ASN.1 DER reader.
//
// https://www.itu.int/rec/T-REC-X.690
//
// The reader decodes a buffer into a tree of tag-length-value nodes without
// copying anything: every node references the span of the input it was read
// from, so the exact bytes of any value (e.g. a signed TBS structure) can be
// recovered later. Only the definite length, minimally encoded forms allowed
// by DER are accepted:
//   - Lengths use the short form below 128 and the shortest long form above
//   - Indefinite lengths are rejected
//   - High tag numbers use the shortest base-128 form
//   - Declared lengths never exceed the enclosing value
package der

import (
	"errors"
	"fmt"
)

// Class is the ASN.1 class of a tag.
type Class uint8

// Tag classes, as encoded in the top two bits of the identifier octet.
const (
	ClassUniversal       Class = 0
	ClassApplication     Class = 1
	ClassContextSpecific Class = 2
	ClassPrivate         Class = 3
)

// Universal tag numbers of the types appearing in certificates and CRLs.
const (
	TagBoolean         = 1
	TagInteger         = 2
	TagBitString       = 3
	TagOctetString     = 4
	TagNull            = 5
	TagOID             = 6
	TagEnumerated      = 10
	TagUTF8String      = 12
	TagSequence        = 16
	TagSet             = 17
	TagNumericString   = 18
	TagPrintableString = 19
	TagT61String       = 20
	TagIA5String       = 22
	TagUTCTime         = 23
	TagGeneralizedTime = 24
	TagVisibleString   = 26
	TagUniversalString = 28
	TagBMPString       = 30
)

// maxDepth is the deepest nesting of constructed values accepted.
const maxDepth = 64

// maxTag is the largest high tag number accepted.
const maxTag = 1<<24 - 1

// maxInt is the maximum value of int, used for overflow checks.
const maxInt = int(^uint(0) >> 1)

// Error types for DER decoding failures
var (
	ErrUnexpectedEOF    = errors.New("unexpected end of data")
	ErrIndefiniteLength = errors.New("indefinite length encoding")
	ErrNonMinimalLength = errors.New("non-minimal length encoding")
	ErrNonMinimalTag    = errors.New("non-minimal tag encoding")
	ErrLengthOverflow   = errors.New("length overflow")
	ErrTooDeep          = errors.New("nesting too deep")
	ErrTrailingBytes    = errors.New("unexpected trailing bytes")
	ErrUnexpectedTag    = errors.New("unexpected tag")
	ErrInvalidValue     = errors.New("invalid value encoding")
)

// TLV is a decoded tag-length-value node.
//
// Raw and Content alias the decoded buffer. They must be treated as read-only.
type TLV struct {
	Class       Class  // Tag class
	Constructed bool   // Whether the content is a sequence of nested values
	Tag         int    // Tag number within the class
	Offset      int    // Position of the identifier octet in the top level buffer
	Raw         []byte // Identifier, length and content octets
	Content     []byte // Content octets only
	Children    []*TLV // Nested values of a constructed node, nil for primitives
}

// Decoder is a cursor over a DER buffer, reading consecutive values.
type Decoder struct {
	data  []byte
	pos   int
	base  int // Offset of data within the top level buffer
	depth int // Nesting level of data within the top level buffer
}

// NewDecoder creates a decoder around a data blob.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Empty reports whether all the data has been consumed.
func (d *Decoder) Empty() bool {
	return d.pos == len(d.data)
}

// Finish terminates decoding and returns an error if trailing bytes remain.
func (d *Decoder) Finish() error {
	if d.pos != len(d.data) {
		return fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingBytes, len(d.data)-d.pos, d.base+d.pos)
	}
	return nil
}

// Parse decodes a buffer holding exactly one DER value.
func Parse(data []byte) (*TLV, error) {
	dec := NewDecoder(data)

	tlv, err := dec.ReadTLV()
	if err != nil {
		return nil, err
	}
	if err := dec.Finish(); err != nil {
		return nil, err
	}
	return tlv, nil
}

// ReadTLV decodes the next value, recursing into constructed content.
func (d *Decoder) ReadTLV() (*TLV, error) {
	start := d.pos

	class, constructed, tag, err := d.decodeIdentifier()
	if err != nil {
		return nil, fmt.Errorf("%w (offset %d)", err, d.base+start)
	}
	length, err := d.decodeLength()
	if err != nil {
		return nil, fmt.Errorf("%w (offset %d)", err, d.base+start)
	}
	content, err := d.readBytes(length)
	if err != nil {
		return nil, fmt.Errorf("%w: need %d content bytes (offset %d)", err, length, d.base+start)
	}
	tlv := &TLV{
		Class:       class,
		Constructed: constructed,
		Tag:         tag,
		Offset:      d.base + start,
		Raw:         d.data[start:d.pos:d.pos],
		Content:     content,
	}
	if !constructed {
		return tlv, nil
	}
	// Constructed, descend into the content with a nested cursor
	if d.depth >= maxDepth {
		return nil, fmt.Errorf("%w (offset %d)", ErrTooDeep, d.base+start)
	}
	sub := &Decoder{
		data:  content,
		base:  d.base + d.pos - len(content),
		depth: d.depth + 1,
	}
	for !sub.Empty() {
		child, err := sub.ReadTLV()
		if err != nil {
			return nil, err
		}
		tlv.Children = append(tlv.Children, child)
	}
	return tlv, nil
}

// decodeIdentifier extracts the class, form and tag number of the next value.
func (d *Decoder) decodeIdentifier() (Class, bool, int, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, false, 0, err
	}
	class := Class(b >> 6)
	constructed := b&0x20 != 0

	tag := int(b & 0x1f)
	if tag != 0x1f {
		return class, constructed, tag, nil
	}
	// High tag number form: base-128, big-endian, no leading zero groups
	tag = 0
	for i := 0; ; i++ {
		b, err := d.readByte()
		if err != nil {
			return 0, false, 0, err
		}
		if i == 0 && b == 0x80 {
			return 0, false, 0, ErrNonMinimalTag
		}
		tag = tag<<7 | int(b&0x7f)
		if tag > maxTag {
			return 0, false, 0, fmt.Errorf("%w: tag number exceeds %d", ErrInvalidValue, maxTag)
		}
		if b&0x80 == 0 {
			break
		}
	}
	if tag < 0x1f {
		return 0, false, 0, fmt.Errorf("%w: tag %d in high tag form", ErrNonMinimalTag, tag)
	}
	return class, constructed, tag, nil
}

// decodeLength extracts the content length of the next value, enforcing the
// shortest possible definite form.
func (d *Decoder) decodeLength() (int, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b < 0x80:
		return int(b), nil
	case b == 0x80:
		return 0, ErrIndefiniteLength
	}
	n := int(b & 0x7f)
	if n > 8 {
		return 0, fmt.Errorf("%w: %d length octets", ErrLengthOverflow, n)
	}
	octets, err := d.readBytes(n)
	if err != nil {
		return 0, err
	}
	if octets[0] == 0 {
		return 0, ErrNonMinimalLength
	}
	var length uint64
	for _, o := range octets {
		length = length<<8 | uint64(o)
	}
	if length < 0x80 {
		return 0, fmt.Errorf("%w: long form for length %d", ErrNonMinimalLength, length)
	}
	if length > uint64(maxInt) {
		return 0, ErrLengthOverflow
	}
	return int(length), nil
}

// readByte retrieves the next byte from the buffer.
func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrUnexpectedEOF
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

// readBytes retrieves the next n bytes from the buffer.
func (d *Decoder) readBytes(n int) ([]byte, error) {
	if n > len(d.data)-d.pos {
		return nil, ErrUnexpectedEOF
	}
	bytes := d.data[d.pos : d.pos+n : d.pos+n]
	d.pos += n
	return bytes, nil
}

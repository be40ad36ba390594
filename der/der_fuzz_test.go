// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"bytes"
	"testing"
)

func FuzzParse(f *testing.F) {
	// Add some seed corpus
	f.Add([]byte{0x05, 0x00})                   // null
	f.Add([]byte{0x01, 0x01, 0xff})             // boolean
	f.Add([]byte{0x02, 0x02, 0x00, 0x80})       // integer
	f.Add([]byte{0x30, 0x03, 0x02, 0x01, 0x05}) // sequence
	f.Add([]byte{0xa0, 0x03, 0x02, 0x01, 0x02}) // explicit tag
	f.Add([]byte{0x9f, 0x81, 0x00, 0x01, 0xaa}) // high tag
	f.Add([]byte{0x30, 0x80, 0x00, 0x00})       // indefinite
	f.Add([]byte{0x06, 0x03, 0x55, 0x1d, 0x13}) // oid
	f.Add([]byte{0x17, 0x0d, '0', '6', '0', '4', '2', '7', '0', '6', '1', '3', '4', '5', 'Z'})

	f.Fuzz(func(t *testing.T, data []byte) {
		tlv, err := Parse(data)
		if err != nil {
			return
		}
		if !bytes.Equal(tlv.Raw, data) {
			t.Fatalf("top level span mismatch: have %x, want %x", tlv.Raw, data)
		}
		checkSpans(t, data, tlv)
	})
}

// checkSpans verifies that every node of a decoded tree aliases the input at
// its recorded offset, and that children tile the parent's content exactly.
func checkSpans(t *testing.T, data []byte, tlv *TLV) {
	t.Helper()

	if tlv.Offset < 0 || tlv.Offset+len(tlv.Raw) > len(data) {
		t.Fatalf("span out of bounds: offset %d, length %d", tlv.Offset, len(tlv.Raw))
	}
	if !bytes.Equal(data[tlv.Offset:tlv.Offset+len(tlv.Raw)], tlv.Raw) {
		t.Fatalf("raw span mismatch at offset %d", tlv.Offset)
	}
	if !bytes.HasSuffix(tlv.Raw, tlv.Content) {
		t.Fatalf("content is not a suffix of the raw encoding at offset %d", tlv.Offset)
	}
	if !tlv.Constructed {
		if tlv.Children != nil {
			t.Fatalf("primitive with children at offset %d", tlv.Offset)
		}
		return
	}
	var joined []byte
	for _, child := range tlv.Children {
		checkSpans(t, data, child)
		joined = append(joined, child.Raw...)
	}
	if !bytes.Equal(joined, tlv.Content) {
		t.Fatalf("children do not tile content at offset %d", tlv.Offset)
	}
}

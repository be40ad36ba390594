// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"net/netip"
	"slices"

	"github.com/dark-bio/x509-go/der"
)

// GeneralNameKind is the CHOICE alternative of a GeneralName, equal to its
// context tag number.
type GeneralNameKind int

const (
	OtherName     GeneralNameKind = 0
	RFC822Name    GeneralNameKind = 1
	DNSName       GeneralNameKind = 2
	X400Address   GeneralNameKind = 3
	DirectoryName GeneralNameKind = 4
	EDIPartyName  GeneralNameKind = 5
	URI           GeneralNameKind = 6
	IPAddress     GeneralNameKind = 7
	RegisteredID  GeneralNameKind = 8
)

var generalNameKinds = [...]string{
	"otherName", "rfc822Name", "dNSName", "x400Address", "directoryName",
	"ediPartyName", "uniformResourceIdentifier", "iPAddress", "registeredID",
}

// String implements fmt.Stringer.
func (k GeneralNameKind) String() string {
	if k >= 0 && int(k) < len(generalNameKinds) {
		return generalNameKinds[k]
	}
	return fmt.Sprintf("GeneralNameKind(%d)", int(k))
}

// GeneralName is a single alternative name. Value holds the text form of
// every kind: the string itself for rfc822Name, dNSName and URI, the address
// for iPAddress, the RFC 2253 form for directoryName, the dotted identifier
// for registeredID and the hex encoding for the opaque kinds.
type GeneralName struct {
	Kind  GeneralNameKind
	Value string
	IP    netip.Addr            // Set for iPAddress
	Name  *Name                 // Set for directoryName
	OID   asn1.ObjectIdentifier // Set for registeredID
	Raw   []byte                // Full encoding of the name
}

// parseGeneralNames decodes a SEQUENCE OF GeneralName.
func parseGeneralNames(tlv *der.TLV) ([]GeneralName, error) {
	items, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	return parseGeneralNameList(items)
}

// parseGeneralNameList decodes the elements of a GeneralNames, which may come
// from an implicitly tagged sequence.
func parseGeneralNameList(items []*der.TLV) ([]GeneralName, error) {
	names := make([]GeneralName, 0, len(items))
	for _, item := range items {
		name, err := parseGeneralName(item)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// parseGeneralName decodes a single context tagged GeneralName.
func parseGeneralName(tlv *der.TLV) (GeneralName, error) {
	if tlv.Class != der.ClassContextSpecific || tlv.Tag > int(RegisteredID) {
		return GeneralName{}, fmt.Errorf("%w: general name tag %d", errUnexpectedField, tlv.Tag)
	}
	name := GeneralName{
		Kind: GeneralNameKind(tlv.Tag),
		Raw:  tlv.Raw,
	}
	switch name.Kind {
	case RFC822Name, DNSName, URI:
		if tlv.Constructed {
			return GeneralName{}, fmt.Errorf("%w: constructed %s", errUnexpectedField, name.Kind)
		}
		text, err := tlv.Implicit(der.TagIA5String).Text()
		if err != nil {
			return GeneralName{}, err
		}
		name.Value = text

	case IPAddress:
		if tlv.Constructed {
			return GeneralName{}, fmt.Errorf("%w: constructed %s", errUnexpectedField, name.Kind)
		}
		addr, ok := netip.AddrFromSlice(tlv.Content)
		if !ok {
			return GeneralName{}, fmt.Errorf("%w: %d byte ip address", der.ErrInvalidValue, len(tlv.Content))
		}
		name.IP = addr
		name.Value = addr.String()

	case DirectoryName:
		dn, err := parseDirectoryName(tlv)
		if err != nil {
			return GeneralName{}, err
		}
		name.Name = &dn
		name.Value = dn.String()

	case RegisteredID:
		if tlv.Constructed {
			return GeneralName{}, fmt.Errorf("%w: constructed %s", errUnexpectedField, name.Kind)
		}
		oid, err := tlv.Implicit(der.TagOID).ObjectIdentifier()
		if err != nil {
			return GeneralName{}, err
		}
		name.OID = oid
		name.Value = oid.String()

	default:
		// otherName, x400Address and ediPartyName stay opaque
		if !tlv.Constructed {
			return GeneralName{}, fmt.Errorf("%w: primitive %s", errUnexpectedField, name.Kind)
		}
		name.Value = hex.EncodeToString(tlv.Content)
	}
	return name, nil
}

// parseDirectoryName decodes the Name inside a [4] GeneralName. The CHOICE
// requires explicit tagging, but implicitly tagged names are common enough in
// issued certificates to be accepted too. The two are told apart by the
// content: an explicit tag wraps a single SEQUENCE, an implicit one holds the
// RDN SETs directly.
func parseDirectoryName(tlv *der.TLV) (Name, error) {
	if !tlv.Constructed {
		return Name{}, fmt.Errorf("%w: primitive directoryName", errUnexpectedField)
	}
	if len(tlv.Children) == 1 && tlv.Children[0].IsUniversal(der.TagSequence) {
		return parseName(tlv.Children[0])
	}
	return parseName(tlv.Implicit(der.TagSequence))
}

// String returns the kind and text form of the name, e.g. "dNSName:example.com".
func (g GeneralName) String() string {
	return g.Kind.String() + ":" + g.Value
}

// cloneGeneralNames deep copies a name list for handing out to callers.
func cloneGeneralNames(names []GeneralName) []GeneralName {
	if names == nil {
		return nil
	}
	out := make([]GeneralName, len(names))
	for i, name := range names {
		out[i] = name
		out[i].Raw = slices.Clone(name.Raw)
		out[i].OID = slices.Clone(name.OID)
		if name.Name != nil {
			dn := name.Name.clone()
			out[i].Name = &dn
		}
	}
	return out
}

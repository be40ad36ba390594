// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"slices"
)

// OIDList is a read-only, ordered view over a sequence of object identifiers.
// Every accessor returns copies, so nothing handed out can alter the list.
type OIDList struct {
	oids []asn1.ObjectIdentifier
}

// Len returns the number of identifiers in the list.
func (l *OIDList) Len() int {
	return len(l.oids)
}

// At returns the identifier at the given position.
func (l *OIDList) At(i int) asn1.ObjectIdentifier {
	return slices.Clone(l.oids[i])
}

// All returns a copy of the identifiers, in encoding order.
func (l *OIDList) All() []asn1.ObjectIdentifier {
	out := make([]asn1.ObjectIdentifier, len(l.oids))
	for i, oid := range l.oids {
		out[i] = slices.Clone(oid)
	}
	return out
}

// Strings returns the dotted forms of the identifiers, in encoding order.
func (l *OIDList) Strings() []string {
	out := make([]string, len(l.oids))
	for i, oid := range l.oids {
		out[i] = oid.String()
	}
	return out
}

// Contains reports whether the list holds the given identifier.
func (l *OIDList) Contains(oid asn1.ObjectIdentifier) bool {
	return slices.ContainsFunc(l.oids, oid.Equal)
}

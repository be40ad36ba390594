// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1ext provides ASN.1 structures that the standard library
// only handles for the key types it knows.
package asn1ext

import (
	"crypto/x509/pkix"
	"encoding/asn1"
)

// SubjectPublicKeyInfo is the ASN.1 structure for SPKI public keys.
type SubjectPublicKeyInfo struct {
	Algorithm        pkix.AlgorithmIdentifier
	SubjectPublicKey asn1.BitString
}

// MarshalSubjectPublicKeyInfo encodes a raw key under an algorithm identifier
// without parameters, as used by the EdDSA, ML-DSA and composite keys.
func MarshalSubjectPublicKeyInfo(oid asn1.ObjectIdentifier, key []byte) []byte {
	info := SubjectPublicKeyInfo{
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm: oid,
		},
		SubjectPublicKey: asn1.BitString{
			Bytes:     key,
			BitLength: len(key) * 8,
		},
	}
	der, err := asn1.Marshal(info)
	if err != nil {
		panic(err) // cannot fail
	}
	return der
}

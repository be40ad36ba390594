// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"encoding/asn1"
	"slices"

	"github.com/dark-bio/x509-go/der"
)

// AlgorithmIdentifier names a signature or public key algorithm along with
// its optional parameters.
type AlgorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier // Algorithm identifier
	Parameters []byte                // Full encoding of the parameters, nil if absent
	Raw        []byte                // Full encoding of the identifier
}

// ParseAlgorithmIdentifier decodes a DER encoded AlgorithmIdentifier.
func ParseAlgorithmIdentifier(data []byte) (AlgorithmIdentifier, error) {
	tlv, err := der.Parse(data)
	if err != nil {
		return AlgorithmIdentifier{}, malformed("parse algorithm", err)
	}
	alg, err := parseAlgorithmIdentifier(tlv)
	if err != nil {
		return AlgorithmIdentifier{}, malformed("parse algorithm", err)
	}
	return alg, nil
}

// parseAlgorithmIdentifier decodes SEQUENCE { algorithm OID, parameters ANY OPTIONAL }.
func parseAlgorithmIdentifier(tlv *der.TLV) (AlgorithmIdentifier, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return AlgorithmIdentifier{}, err
	}
	if len(fields) < 1 || len(fields) > 2 {
		return AlgorithmIdentifier{}, errFieldCount
	}
	oid, err := fields[0].ObjectIdentifier()
	if err != nil {
		return AlgorithmIdentifier{}, err
	}
	alg := AlgorithmIdentifier{
		Algorithm: oid,
		Raw:       tlv.Raw,
	}
	if len(fields) == 2 {
		alg.Parameters = fields[1].Raw
	}
	return alg, nil
}

// Name returns the display name of the algorithm, or its dotted identifier
// if it is not a well known one.
func (a AlgorithmIdentifier) Name() string {
	if name, ok := signatureNames[a.Algorithm.String()]; ok {
		return name
	}
	return a.Algorithm.String()
}

// HasNullParameters reports whether the parameters are absent or an explicit
// NULL, the two encodings allowed for RSA and DSA style identifiers.
func (a AlgorithmIdentifier) HasNullParameters() bool {
	return a.Parameters == nil || slices.Equal(a.Parameters, []byte{0x05, 0x00})
}

// PublicKeyInfo is a decoded SubjectPublicKeyInfo. The key material is kept
// as an opaque blob, interpreting it is up to the signature verifier.
type PublicKeyInfo struct {
	Algorithm AlgorithmIdentifier // Public key algorithm and its parameters
	Key       asn1.BitString      // Encoded public key
	Raw       []byte              // Full encoding of the SubjectPublicKeyInfo
}

// ParsePublicKeyInfo decodes a DER encoded SubjectPublicKeyInfo.
func ParsePublicKeyInfo(data []byte) (*PublicKeyInfo, error) {
	tlv, err := der.Parse(data)
	if err != nil {
		return nil, malformed("parse public key", err)
	}
	info, err := parsePublicKeyInfo(tlv)
	if err != nil {
		return nil, malformed("parse public key", err)
	}
	return info, nil
}

// parsePublicKeyInfo decodes SEQUENCE { algorithm AlgorithmIdentifier, subjectPublicKey BIT STRING }.
func parsePublicKeyInfo(tlv *der.TLV) (*PublicKeyInfo, error) {
	fields, err := tlv.Sequence()
	if err != nil {
		return nil, err
	}
	if len(fields) != 2 {
		return nil, errFieldCount
	}
	alg, err := parseAlgorithmIdentifier(fields[0])
	if err != nil {
		return nil, err
	}
	key, err := fields[1].BitString()
	if err != nil {
		return nil, err
	}
	return &PublicKeyInfo{
		Algorithm: alg,
		Key:       key,
		Raw:       tlv.Raw,
	}, nil
}

// KeyBytes returns the key material, failing if the bit string is not made
// of whole octets.
func (k *PublicKeyInfo) KeyBytes() ([]byte, error) {
	if k.Key.BitLength%8 != 0 {
		return nil, errUnalignedBits
	}
	return k.Key.Bytes, nil
}

// clone creates a deep copy of the key info for handing out to callers.
func (k *PublicKeyInfo) clone() *PublicKeyInfo {
	return &PublicKeyInfo{
		Algorithm: k.Algorithm.clone(),
		Key:       asn1.BitString{Bytes: slices.Clone(k.Key.Bytes), BitLength: k.Key.BitLength},
		Raw:       slices.Clone(k.Raw),
	}
}

// clone creates a deep copy of the identifier for handing out to callers.
func (a AlgorithmIdentifier) clone() AlgorithmIdentifier {
	return AlgorithmIdentifier{
		Algorithm:  slices.Clone(a.Algorithm),
		Parameters: slices.Clone(a.Parameters),
		Raw:        slices.Clone(a.Raw),
	}
}

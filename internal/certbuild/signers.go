// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package certbuild

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/dark-bio/x509-go/internal/asn1ext"
	"github.com/dark-bio/x509-go/verify"
)

var (
	oidEd25519         = asn1.ObjectIdentifier{1, 3, 101, 112}
	oidECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	oidSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	oidMLDSA65         = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}
	oidMLDSA65Ed25519  = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 6, 48}
)

// Ed25519Signer signs with a pure Ed25519 key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

// NewEd25519 creates a signer from a 32-byte seed.
func NewEd25519(seed [ed25519.SeedSize]byte) *Ed25519Signer {
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed[:])}
}

// GenerateEd25519 creates a signer with a random key.
func GenerateEd25519() *Ed25519Signer {
	var seed [ed25519.SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("certbuild: " + err.Error())
	}
	return NewEd25519(seed)
}

func (s *Ed25519Signer) Algorithm() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: oidEd25519}
}

func (s *Ed25519Signer) PublicKeyInfo() []byte {
	return marshalPKIX(s.key.Public())
}

func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.key, message), nil
}

// ECDSASigner signs with a P-256 key and SHA-256.
type ECDSASigner struct {
	key *ecdsa.PrivateKey
}

// GenerateECDSA creates a signer with a random P-256 key.
func GenerateECDSA() *ECDSASigner {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic("certbuild: " + err.Error())
	}
	return &ECDSASigner{key: key}
}

func (s *ECDSASigner) Algorithm() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: oidECDSAWithSHA256}
}

func (s *ECDSASigner) PublicKeyInfo() []byte {
	return marshalPKIX(&s.key.PublicKey)
}

func (s *ECDSASigner) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	return ecdsa.SignASN1(rand.Reader, s.key, hash[:])
}

// RSASigner signs with a 2048-bit RSA key, PKCS#1 v1.5 and SHA-256.
type RSASigner struct {
	key *rsa.PrivateKey
}

// GenerateRSA creates a signer with a random 2048-bit key.
func GenerateRSA() *RSASigner {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("certbuild: " + err.Error())
	}
	return &RSASigner{key: key}
}

func (s *RSASigner) Algorithm() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: oidSHA256WithRSA, Parameters: asn1.NullRawValue}
}

func (s *RSASigner) PublicKeyInfo() []byte {
	return marshalPKIX(&s.key.PublicKey)
}

func (s *RSASigner) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	return rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, hash[:])
}

// MLDSASigner signs with an ML-DSA-65 key and an empty context.
type MLDSASigner struct {
	key *mldsa65.PrivateKey
	pub *mldsa65.PublicKey
}

// NewMLDSA creates a signer from a 32-byte seed.
func NewMLDSA(seed [mldsa65.SeedSize]byte) *MLDSASigner {
	pub, key := mldsa65.NewKeyFromSeed(&seed)
	return &MLDSASigner{key: key, pub: pub}
}

func (s *MLDSASigner) Algorithm() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: oidMLDSA65}
}

func (s *MLDSASigner) PublicKeyInfo() []byte {
	raw, _ := s.pub.MarshalBinary()
	return asn1ext.MarshalSubjectPublicKeyInfo(oidMLDSA65, raw)
}

func (s *MLDSASigner) Sign(message []byte) ([]byte, error) {
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(s.key, message, nil, false, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// CompositeSigner signs with a composite ML-DSA-65 + Ed25519 key.
type CompositeSigner struct {
	mlKey *mldsa65.PrivateKey
	mlPub *mldsa65.PublicKey
	edKey ed25519.PrivateKey
}

// NewComposite creates a signer from a 64-byte seed: ML-DSA seed (32 bytes)
// || Ed25519 seed (32 bytes).
func NewComposite(seed [64]byte) *CompositeSigner {
	var mlSeed [mldsa65.SeedSize]byte
	copy(mlSeed[:], seed[:32])

	mlPub, mlKey := mldsa65.NewKeyFromSeed(&mlSeed)
	return &CompositeSigner{
		mlKey: mlKey,
		mlPub: mlPub,
		edKey: ed25519.NewKeyFromSeed(seed[32:]),
	}
}

func (s *CompositeSigner) Algorithm() pkix.AlgorithmIdentifier {
	return pkix.AlgorithmIdentifier{Algorithm: oidMLDSA65Ed25519}
}

func (s *CompositeSigner) PublicKeyInfo() []byte {
	raw := make([]byte, 0, verify.CompositePublicKeySize)

	mlBytes, _ := s.mlPub.MarshalBinary()
	raw = append(raw, mlBytes...)
	raw = append(raw, s.edKey.Public().(ed25519.PublicKey)...)

	return asn1ext.MarshalSubjectPublicKeyInfo(oidMLDSA65Ed25519, raw)
}

func (s *CompositeSigner) Sign(message []byte) ([]byte, error) {
	mPrime := verify.CompositeMessage(message)

	// ML-DSA-65 (3309 bytes) || Ed25519 (64 bytes)
	sig := make([]byte, verify.CompositeSignatureSize)
	if err := mldsa65.SignTo(s.mlKey, mPrime, []byte(verify.CompositeDomain), false, sig[:mldsa65.SignatureSize]); err != nil {
		return nil, err
	}
	copy(sig[mldsa65.SignatureSize:], ed25519.Sign(s.edKey, mPrime))
	return sig, nil
}

// marshalPKIX encodes a standard library public key.
func marshalPKIX(pub crypto.PublicKey) []byte {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		panic(err) // cannot fail for valid key
	}
	return der
}

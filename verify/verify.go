// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package verify checks the signatures of X.509 objects.
//
// The Registry maps signature algorithm identifiers to verification functions
// and plugs into the x509 package as its SignatureVerifier. Out of the box it
// knows RSA PKCS#1 v1.5, ECDSA, Ed25519, ML-DSA and the composite ML-DSA-65 +
// Ed25519 scheme.
package verify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dark-bio/x509-go/x509"
)

// Errors reported by the verification functions. The algorithm errors match
// x509.ErrUnsupportedAlgorithm via errors.Is, the rest are failed checks.
var (
	ErrUnknownAlgorithm = fmt.Errorf("verify: %w: unknown signature algorithm", x509.ErrUnsupportedAlgorithm)
	ErrUnknownKey       = fmt.Errorf("verify: %w: unknown public key algorithm", x509.ErrUnsupportedAlgorithm)
	ErrKeyMismatch      = errors.New("verify: public key does not match signature algorithm")
	ErrInvalidKey       = errors.New("verify: invalid public key")
	ErrInvalidSignature = errors.New("verify: signature verification failed")
)

// Func verifies a signature made with a specific algorithm.
type Func func(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error

// knownKeys lists the public key algorithms of the built-in verifiers. A key
// with any of these identifiers used against the wrong signature algorithm is
// a mismatch, any other key is unsupported.
var knownKeys = map[string]bool{
	x509.OIDPublicKeyRSA.String():            true,
	x509.OIDPublicKeyECDSA.String():          true,
	x509.OIDSignatureEd25519.String():        true,
	x509.OIDSignatureMLDSA44.String():        true,
	x509.OIDSignatureMLDSA65.String():        true,
	x509.OIDSignatureMLDSA87.String():        true,
	x509.OIDSignatureMLDSA65Ed25519.String(): true,
}

// Registry is a set of signature verifiers keyed by algorithm identifier. It
// is safe for concurrent use.
type Registry struct {
	lock  sync.RWMutex
	funcs map[string]Func
}

// New creates a registry with all the built-in verifiers.
func New() *Registry {
	r := &Registry{funcs: make(map[string]Func)}

	r.Register(x509.OIDSignatureSHA1WithRSA.String(), verifyRSA(sha1Hash))
	r.Register(x509.OIDSignatureSHA256WithRSA.String(), verifyRSA(sha256Hash))
	r.Register(x509.OIDSignatureSHA384WithRSA.String(), verifyRSA(sha384Hash))
	r.Register(x509.OIDSignatureSHA512WithRSA.String(), verifyRSA(sha512Hash))

	r.Register(x509.OIDSignatureECDSAWithSHA256.String(), verifyECDSA(sha256Hash))
	r.Register(x509.OIDSignatureECDSAWithSHA384.String(), verifyECDSA(sha384Hash))
	r.Register(x509.OIDSignatureECDSAWithSHA512.String(), verifyECDSA(sha512Hash))

	r.Register(x509.OIDSignatureEd25519.String(), verifyEd25519)

	r.Register(x509.OIDSignatureMLDSA44.String(), verifyMLDSA(mldsa44Scheme))
	r.Register(x509.OIDSignatureMLDSA65.String(), verifyMLDSA(mldsa65Scheme))
	r.Register(x509.OIDSignatureMLDSA87.String(), verifyMLDSA(mldsa87Scheme))

	r.Register(x509.OIDSignatureMLDSA65Ed25519.String(), verifyComposite)

	return r
}

// Register adds or replaces the verifier of a signature algorithm, given by
// its dotted OID.
func (r *Registry) Register(oid string, fn Func) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.funcs[oid] = fn
}

// Supports reports whether a verifier is registered for the algorithm.
func (r *Registry) Supports(oid string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.funcs[oid]
	return ok
}

// VerifySignature implements x509.SignatureVerifier.
func (r *Registry) VerifySignature(alg x509.AlgorithmIdentifier, key *x509.PublicKeyInfo, signed, signature []byte) error {
	r.lock.RLock()
	fn, ok := r.funcs[alg.Algorithm.String()]
	r.lock.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, alg.Algorithm)
	}
	return fn(alg, key, signed, signature)
}

// checkKey ensures the public key algorithm is the expected one.
func checkKey(key *x509.PublicKeyInfo, want string) error {
	have := key.Algorithm.Algorithm.String()
	if have == want {
		return nil
	}
	if knownKeys[have] {
		return fmt.Errorf("%w: %s key for %s signature", ErrKeyMismatch, have, want)
	}
	return fmt.Errorf("%w: %s", ErrUnknownKey, have)
}

// keyBytes returns the raw key of an SPKI, checking its size if one is given.
func keyBytes(key *x509.PublicKeyInfo, size int) ([]byte, error) {
	raw, err := key.KeyBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if size > 0 && len(raw) != size {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", ErrInvalidKey, len(raw), size)
	}
	return raw, nil
}

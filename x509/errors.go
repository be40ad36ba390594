// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"errors"
	"strings"
)

// Kind classifies the failures reported by this package.
type Kind int

const (
	MalformedEncoding        Kind = iota + 1 // DER or grammar violation, fatal for the decode
	UnsupportedAlgorithm                     // Signature or key algorithm unknown to the verifier
	SignatureInvalid                         // Cryptographic check failed
	ExtensionDecodingAnomaly                 // Recognised extension with a malformed value
	Expired                                  // Instant after the validity window
	NotYetValid                              // Instant before the validity window
)

// Error types matching each failure kind via errors.Is
var (
	ErrMalformedEncoding    = errors.New("x509: malformed encoding")
	ErrUnsupportedAlgorithm = errors.New("x509: unsupported algorithm")
	ErrSignatureInvalid     = errors.New("x509: invalid signature")
	ErrExtensionAnomaly     = errors.New("x509: extension decoding anomaly")
	ErrExpired              = errors.New("x509: certificate expired")
	ErrNotYetValid          = errors.New("x509: certificate not yet valid")
)

// Grammar violations wrapped into MalformedEncoding errors
var (
	errFieldCount        = errors.New("unexpected number of fields")
	errUnexpectedField   = errors.New("unexpected field")
	errBadVersion        = errors.New("unsupported version")
	errVersionGate       = errors.New("field not allowed in this version")
	errAlgorithmMismatch = errors.New("signature algorithm mismatch")
	errDuplicateExt      = errors.New("duplicate extension")
	errEmptyRDN          = errors.New("empty relative distinguished name")
	errUnalignedBits     = errors.New("bit string is not byte aligned")
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case MalformedEncoding:
		return "malformed encoding"
	case UnsupportedAlgorithm:
		return "unsupported algorithm"
	case SignatureInvalid:
		return "invalid signature"
	case ExtensionDecodingAnomaly:
		return "extension decoding anomaly"
	case Expired:
		return "expired"
	case NotYetValid:
		return "not yet valid"
	}
	return "unknown"
}

// sentinel returns the package level error matching the kind.
func (k Kind) sentinel() error {
	switch k {
	case MalformedEncoding:
		return ErrMalformedEncoding
	case UnsupportedAlgorithm:
		return ErrUnsupportedAlgorithm
	case SignatureInvalid:
		return ErrSignatureInvalid
	case ExtensionDecodingAnomaly:
		return ErrExtensionAnomaly
	case Expired:
		return ErrExpired
	case NotYetValid:
		return ErrNotYetValid
	}
	return nil
}

// CertificateError is the error returned by every failing operation of this
// package. The underlying cause, if any, is reachable through errors.Unwrap.
type CertificateError struct {
	Kind Kind   // Failure classification
	Op   string // Operation that failed, e.g. "parse certificate"
	Err  error  // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *CertificateError) Error() string {
	var b strings.Builder
	b.WriteString("x509: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CertificateError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the failure kind.
func (e *CertificateError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// malformed creates a MalformedEncoding error for an operation.
func malformed(op string, err error) error {
	return &CertificateError{Kind: MalformedEncoding, Op: op, Err: err}
}

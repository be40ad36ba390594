// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package x509 decodes X.509 certificates and certificate revocation lists.
//
// https://datatracker.ietf.org/doc/html/rfc5280
//
// Decoding walks the fixed certificate grammar over a strict DER tree and
// either yields a fully populated, immutable value or a *CertificateError.
// Every decoded object keeps the exact byte spans it was read from, so the
// signed pre-image of a certificate is always the original TBS encoding.
//
// Extension payloads are interpreted lazily on first access. A recognised
// extension whose value does not follow its grammar is downgraded to opaque
// instead of failing the whole certificate.
package x509

import (
	"github.com/jmhodges/clock"
)

// Options contains parameters for decoding an X.509 certificate.
type Options struct {
	Verifier  SignatureVerifier // Signature checker to run at construction, nil to skip
	IssuerKey *PublicKeyInfo    // Key to check the signature against, nil for self-signed
	Clock     clock.Clock       // Time source for validity checks, nil for the wall clock
}

// clockOrDefault returns the configured clock or the system one.
func (o *Options) clockOrDefault() clock.Clock {
	if o == nil || o.Clock == nil {
		return clock.New()
	}
	return o.Clock
}

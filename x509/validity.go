// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x509

import (
	"fmt"
	"time"
)

// NotBefore returns the start of the validity window, in UTC.
func (c *Certificate) NotBefore() time.Time {
	return c.notBefore
}

// NotAfter returns the end of the validity window, in UTC.
func (c *Certificate) NotAfter() time.Time {
	return c.notAfter
}

// CheckValidity checks that the current time, as reported by the configured
// clock, falls within the validity window.
func (c *Certificate) CheckValidity() error {
	return c.CheckValidityAt(c.clock.Now())
}

// CheckValidityAt checks that the given instant falls within the validity
// window, both ends inclusive. It fails with an Expired or NotYetValid error.
func (c *Certificate) CheckValidityAt(t time.Time) error {
	if t.Before(c.notBefore) {
		return &CertificateError{
			Kind: NotYetValid,
			Op:   "check validity",
			Err:  fmt.Errorf("%s is before %s", t.UTC().Format(time.RFC3339), c.notBefore.Format(time.RFC3339)),
		}
	}
	if t.After(c.notAfter) {
		return &CertificateError{
			Kind: Expired,
			Op:   "check validity",
			Err:  fmt.Errorf("%s is after %s", t.UTC().Format(time.RFC3339), c.notAfter.Format(time.RFC3339)),
		}
	}
	return nil
}

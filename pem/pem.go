// x509-go: X.509 certificate decoding and validation
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pem provides strict PEM encoding and decoding, and the transport
// detection used to accept either PEM text or raw DER.
//
// https://datatracker.ietf.org/doc/html/rfc7468
package pem

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dark-bio/x509-go/internal/base64ext"
)

// Block types of the objects handled by this module.
const (
	TypeCertificate = "CERTIFICATE"
	TypeCRL         = "X509 CRL"
	TypePublicKey   = "PUBLIC KEY"
)

var (
	pemHeader = []byte("-----BEGIN ")
	pemFooter = []byte("-----END ")
	pemEnding = []byte("-----")
)

// Error types for PEM decoding failures
var (
	ErrMissingHeader  = errors.New("pem: missing PEM header")
	ErrBadHeader      = errors.New("pem: malformed PEM header")
	ErrMissingFooter  = errors.New("pem: missing PEM footer")
	ErrTrailingData   = errors.New("pem: trailing data after PEM block")
	ErrEmptyBody      = errors.New("pem: empty PEM body")
	ErrBadBody        = errors.New("pem: invalid base64 body")
	ErrUnexpectedType = errors.New("pem: unexpected PEM block type")
)

// IsPEM reports whether the data starts with a PEM header and should thus be
// handed to Decode instead of being treated as raw DER.
func IsPEM(data []byte) bool {
	return bytes.HasPrefix(data, pemHeader)
}

// Decode decodes a single PEM block with strict validation.
//
// Rules:
//   - Header must start at byte 0 (no leading whitespace)
//   - Footer must end the data (only optional line ending after)
//   - Line endings must be consistent (\n or \r\n throughout)
//   - Base64 lines contain only base64 characters, of any length
//   - Strict base64 decoding (no padding errors, etc.)
//   - No trailing data after the PEM block
func Decode(data []byte) (kind string, blob []byte, err error) {
	if !IsPEM(data) {
		return "", nil, ErrMissingHeader
	}
	headerEnd := bytes.IndexByte(data, '\n')
	if headerEnd < 0 {
		return "", nil, ErrBadHeader
	}
	// Detect line ending style from first line
	lineEnding := []byte("\n")
	if headerEnd > 0 && data[headerEnd-1] == '\r' {
		lineEnding = []byte("\r\n")
	}
	header := data[:headerEnd+1-len(lineEnding)]
	if !bytes.HasSuffix(header, pemEnding) || len(header) < len(pemHeader)+len(pemEnding) {
		return "", nil, ErrBadHeader
	}
	blockType := string(header[len(pemHeader) : len(header)-len(pemEnding)])
	if len(blockType) == 0 {
		return "", nil, ErrBadHeader
	}
	// Locate the matching footer, which must close the data
	footer := append(append(append([]byte(nil), pemFooter...), blockType...), pemEnding...)

	footerIdx := bytes.Index(data[headerEnd+1:], footer)
	if footerIdx < 0 {
		return "", nil, ErrMissingFooter
	}
	footerStart := headerEnd + 1 + footerIdx
	footerEnd := footerStart + len(footer)

	if rest := data[footerEnd:]; len(rest) > 0 && !bytes.Equal(rest, lineEnding) {
		return "", nil, ErrTrailingData
	}
	// The body sits between the header and the footer, terminated by a line ending
	body := data[headerEnd+1 : footerStart]
	if len(body) == 0 {
		return "", nil, ErrEmptyBody
	}
	if !bytes.HasSuffix(body, lineEnding) {
		return "", nil, ErrMissingFooter
	}
	body = body[:len(body)-len(lineEnding)]

	decoded, err := base64ext.DecodeLines(body, lineEnding)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	if len(decoded) == 0 {
		return "", nil, ErrEmptyBody
	}
	return blockType, decoded, nil
}

// DecodeAs decodes data that is either a PEM block of the given type, or the
// raw DER payload itself. Detection is based on the PEM header.
func DecodeAs(data []byte, kind string) ([]byte, error) {
	if !IsPEM(data) {
		return data, nil
	}
	have, blob, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if have != kind {
		return nil, fmt.Errorf("%w: have %q, want %q", ErrUnexpectedType, have, kind)
	}
	return blob, nil
}

// Encode encodes data as a PEM block with the given type.
// Lines are 64 characters, using \n line endings.
func Encode(kind string, blob []byte) []byte {
	b64 := base64.StdEncoding.EncodeToString(blob)

	var buf bytes.Buffer
	buf.Write(pemHeader)
	buf.WriteString(kind)
	buf.Write(pemEnding)
	buf.WriteByte('\n')

	for len(b64) > 0 {
		line := b64
		if len(line) > 64 {
			line = b64[:64]
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		b64 = b64[len(line):]
	}
	buf.Write(pemFooter)
	buf.WriteString(kind)
	buf.Write(pemEnding)
	buf.WriteByte('\n')

	return buf.Bytes()
}

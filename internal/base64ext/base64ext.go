// Package base64ext provides strict base64 decoding of line wrapped bodies.
package base64ext

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCharacter is returned when the input contains a stray \r or \n.
	ErrInvalidCharacter = errors.New("base64ext: invalid character")

	// ErrInvalidEncoding is returned when the input is not canonical base64.
	ErrInvalidEncoding = errors.New("base64ext: invalid encoding")
)

// DecodeString decodes a base64 string using strict decoding and rejects
// any input containing \r or \n characters.
func DecodeString(s string) ([]byte, error) {
	if strings.ContainsAny(s, "\r\n") {
		return nil, ErrInvalidCharacter
	}
	out, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return out, nil
}

// DecodeLines decodes a base64 body split into lines by the given line ending.
// Any other line break character left after removing the separators (e.g. a
// lone \n in a \r\n body) is rejected.
func DecodeLines(body []byte, lineEnding []byte) ([]byte, error) {
	return DecodeString(string(bytes.ReplaceAll(body, lineEnding, nil)))
}

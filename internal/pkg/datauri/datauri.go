// Package datauri encodes and decodes the self-contained image strings
// (data:<mime>;base64,<payload>) used for captured photos and signatures.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

var ErrNotDataURI = errors.New("value is not a base64 data URI")

// Encode builds a base64 data URI for data.
func Encode(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURI reports whether s looks like a data URI without decoding it.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// Decode returns the mime type and raw payload of a base64 data URI.
func Decode(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrNotDataURI
	}

	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrNotDataURI)
	}

	meta := s[len("data:"):comma]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrNotDataURI)
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	payload := s[comma+1:]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some capture clients strip the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, fmt.Errorf("decode data uri payload: %w", err)
		}
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrNotDataURI)
	}

	return mime, data, nil
}

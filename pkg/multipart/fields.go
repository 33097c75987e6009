// Package multipart defines the wire vocabulary and codec for the
// multipart/form-data exchange between the gateway and a processor.
package multipart

import (
	"errors"
	"fmt"
	"io"
)

// Well-known multipart field names. These are part of the wire contract
// shared with the gateway and must not change without a breaking-change
// signal.
const (
	FieldInput              = "input.messages"
	FieldInputParameters    = "input.parameters"
	FieldResponse           = "response.choices"
	FieldResponseParameters = "response.parameters"
	FieldMetadata           = "metadata"
	FieldReject             = "reject"
)

// Text encodings used on the wire.
const (
	DefaultEncoding = "utf-8"
	HeaderEncoding  = "us-ascii"
)

// RequiredFields are the field names every request must carry.
var RequiredFields = map[string]bool{
	FieldMetadata: true,
}

// OptionalFields are the field names a request may carry.
var OptionalFields = map[string]bool{
	FieldInput:              true,
	FieldInputParameters:    true,
	FieldResponse:           true,
	FieldResponseParameters: true,
	FieldReject:             true,
}

// MaxFields caps how many multipart parts a request may contain. Bounded by
// the total count of known field names to prevent field-count attacks.
var MaxFields = len(RequiredFields) + len(OptionalFields)

// AllowedEncodings is the charset allow-list for request text.
var AllowedEncodings = map[string]bool{
	"utf-8":      true,
	"us-ascii":   true,
	"latin-1":    true,
	"iso-8859-1": true,
}

const boundaryAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateBoundary produces a random alphanumeric boundary token of the
// given length from the provided randomness source. Length must be in the
// 1..70 range permitted for multipart boundaries.
func GenerateBoundary(rand io.Reader, length int) (string, error) {
	if length < 1 {
		return "", errors.New("boundary length must be greater than 0 characters")
	}
	if length > 70 {
		return "", errors.New("boundary length must be less than 70 characters")
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return "", fmt.Errorf("reading randomness for boundary: %w", err)
	}
	for i, b := range buf {
		buf[i] = boundaryAlphabet[int(b)%len(boundaryAlphabet)]
	}
	return string(buf), nil
}

// FieldOrder is the sort key that keeps metadata as the final part of a
// serialized response regardless of insertion order.
func FieldOrder(field string) int {
	switch field {
	case FieldInput:
		return 0
	case FieldResponse:
		return 1
	case FieldReject:
		return 2
	case FieldMetadata:
		return 3
	default:
		return 0
	}
}

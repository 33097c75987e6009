package multipart

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// JSONContentType is the content type used for structured parts.
const JSONContentType = "application/json"

// TextContentType is the content type used for plain text parts.
const TextContentType = "text/plain;charset=" + DefaultEncoding

// Field is one named part of a multipart response body.
type Field struct {
	Name        string
	Content     string
	ContentType string
}

// EncodeField streams a single part to w: boundary line, part headers, a
// blank line, then the content followed by CRLF.
func EncodeField(w io.Writer, boundary string, f Field) error {
	if boundary == "" {
		return errors.New("boundary must be provided")
	}
	if f.Content == "" {
		return errors.New("content must be provided")
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = JSONContentType
	}

	if _, err := fmt.Fprintf(w, "--%s\r\n", boundary); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Disposition: form-data; name=%q\r\n", f.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Type: %s\r\n\r\n", contentType); err != nil {
		return err
	}
	if _, err := io.WriteString(w, f.Content); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// EncodeFields streams a full multipart/form-data body to w. Parts are
// reordered by FieldOrder first so the metadata part is always last, then a
// closing boundary line terminates the body.
func EncodeFields(w io.Writer, boundary string, fields []Field) error {
	ordered := make([]Field, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool {
		return FieldOrder(ordered[i].Name) < FieldOrder(ordered[j].Name)
	})

	for _, f := range ordered {
		if err := EncodeField(w, boundary, f); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "--%s--\r\n", boundary)
	return err
}

// ContentTypeFor builds the multipart/form-data media type for a response
// with the given boundary.
func ContentTypeFor(boundary string) string {
	return fmt.Sprintf("multipart/form-data;charset=%s;boundary=%q", DefaultEncoding, boundary)
}

// DecodeText decodes raw part bytes using the named charset. The charset
// must be on the allow-list; anything else is reported to the caller so it
// can surface the wire-level encoding error.
func DecodeText(encoding string, data []byte) (string, error) {
	enc := strings.ToLower(encoding)
	if !AllowedEncodings[enc] {
		return "", fmt.Errorf("unsupported text encoding: %s", enc)
	}
	switch enc {
	case "latin-1", "iso-8859-1":
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding %s text: %w", enc, err)
		}
		return string(decoded), nil
	default:
		// utf-8 and its us-ascii subset pass through.
		return string(data), nil
	}
}

package multipart

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateBoundary(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "minimum length", length: 1},
		{name: "typical length", length: 64},
		{name: "maximum length", length: 70},
		{name: "zero length", length: 0, wantErr: true},
		{name: "negative length", length: -5, wantErr: true},
		{name: "too long", length: 71, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boundary, err := GenerateBoundary(bytes.NewReader(bytes.Repeat([]byte{0x42}, 128)), tt.length)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for length %d", tt.length)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(boundary) != tt.length {
				t.Errorf("boundary length = %d, want %d", len(boundary), tt.length)
			}
			for _, c := range boundary {
				if !strings.ContainsRune(boundaryAlphabet, c) {
					t.Errorf("boundary contains non-alphanumeric character %q", c)
				}
			}
		})
	}
}

func TestGenerateBoundaryExhaustedSource(t *testing.T) {
	_, err := GenerateBoundary(bytes.NewReader(nil), 10)
	if err == nil {
		t.Fatal("expected error from empty randomness source")
	}
}

func TestFieldOrder(t *testing.T) {
	if FieldOrder(FieldMetadata) <= FieldOrder(FieldReject) {
		t.Error("metadata must sort after reject")
	}
	if FieldOrder(FieldReject) <= FieldOrder(FieldResponse) {
		t.Error("reject must sort after response")
	}
	if FieldOrder(FieldResponse) <= FieldOrder(FieldInput) {
		t.Error("response must sort after input")
	}
	if FieldOrder("unrecognized") != FieldOrder(FieldInput) {
		t.Error("unknown fields should sort first")
	}
}

func TestMaxFields(t *testing.T) {
	if MaxFields != 6 {
		t.Errorf("MaxFields = %d, want 6", MaxFields)
	}
}

// Package signature declares the capability contract of a processor: which
// request directions it can handle and which fields it requires.
package signature

import (
	"errors"
	"sort"
	"strings"

	"prochost/pkg/multipart"
)

// Field identifies one direction-bearing wire field a signature can name.
type Field string

// Field kinds a signature may require or accept.
const (
	Input    Field = multipart.FieldInput
	Response Field = multipart.FieldResponse
)

// IsInput reports whether the field belongs to the input direction.
func (f Field) IsInput() bool {
	return strings.HasPrefix(string(f), "input.")
}

// IsResponse reports whether the field belongs to the response direction.
func (f Field) IsResponse() bool {
	return strings.HasPrefix(string(f), "response.")
}

// FieldSpec is the introspection form of one signature entry.
type FieldSpec struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Signature declares the required and optional fields of a processor. It is
// built once at processor-definition time and shared read-only across
// requests; at least one of the two sets must be non-empty.
type Signature struct {
	required map[Field]bool
	optional map[Field]bool
}

// New builds a Signature from required and optional field sets.
func New(required, optional []Field) (Signature, error) {
	if len(required) == 0 && len(optional) == 0 {
		return Signature{}, errors.New("signature must have at least one of required or optional")
	}
	return Signature{
		required: fieldSet(required),
		optional: fieldSet(optional),
	}, nil
}

func fieldSet(fields []Field) map[Field]bool {
	if len(fields) == 0 {
		return nil
	}
	set := make(map[Field]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func mustSignature(required, optional []Field) Signature {
	sig, err := New(required, optional)
	if err != nil {
		panic(err)
	}
	return sig
}

// Predefined signatures covering the common processor shapes.
var (
	// InputOnly requires prompt content.
	InputOnly = mustSignature([]Field{Input}, nil)
	// ResponseOnly requires response content.
	ResponseOnly = mustSignature([]Field{Response}, nil)
	// ResponseAndPrompt requires the prompt alongside the response.
	ResponseAndPrompt = mustSignature([]Field{Input, Response}, nil)
	// Both accepts either prompt or response content.
	Both = mustSignature(nil, []Field{Input, Response})
	// BothResponsePrompt requires the prompt and accepts the response.
	BothResponsePrompt = mustSignature([]Field{Input}, []Field{Response})
)

// AllPredefined lists every predefined signature.
var AllPredefined = []Signature{
	InputOnly,
	ResponseOnly,
	ResponseAndPrompt,
	Both,
	BothResponsePrompt,
}

// IsZero reports whether the signature was never constructed.
func (s Signature) IsZero() bool {
	return s.required == nil && s.optional == nil
}

// SupportsInput reports whether any declared field is input-directed.
func (s Signature) SupportsInput() bool {
	return s.supportsDirection("input")
}

// SupportsResponse reports whether any declared field is response-directed.
func (s Signature) SupportsResponse() bool {
	return s.supportsDirection("response")
}

func (s Signature) supportsDirection(direction string) bool {
	prefix := direction + "."
	for f := range s.required {
		if strings.HasPrefix(string(f), prefix) {
			return true
		}
	}
	for f := range s.optional {
		if strings.HasPrefix(string(f), prefix) {
			return true
		}
	}
	return false
}

// Required returns the required fields in lexicographic order. The original
// gateway contract left required-field iteration order unspecified; sorting
// makes "missing required field" errors deterministic, a documented
// behavioral clarification.
func (s Signature) Required() []Field {
	fields := make([]Field, 0, len(s.required))
	for f := range s.required {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Optional returns the optional fields in lexicographic order.
func (s Signature) Optional() []Field {
	fields := make([]Field, 0, len(s.optional))
	for f := range s.optional {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// ToList returns the introspection form served by the signature endpoint.
func (s Signature) ToList() []FieldSpec {
	specs := make([]FieldSpec, 0, len(s.required)+len(s.optional))
	for _, f := range s.Required() {
		specs = append(specs, FieldSpec{Type: string(f), Required: true})
	}
	for _, f := range s.Optional() {
		specs = append(specs, FieldSpec{Type: string(f), Required: false})
	}
	return specs
}

// String renders the signature for logs.
func (s Signature) String() string {
	render := func(fields []Field) string {
		if len(fields) == 0 {
			return "none"
		}
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = string(f)
		}
		return strings.Join(parts, ", ")
	}
	return "Signature(required=" + render(s.Required()) + ", optional=" + render(s.Optional()) + ")"
}

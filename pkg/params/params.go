// Package params defines the configuration parameters contract between the
// gateway and a processor.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Parameters is the configuration object delivered with each request.
// Processor-specific parameter types embed Base and may extend Validate,
// keeping the reserved policy flags and their exclusivity invariant.
type Parameters interface {
	// Common returns the reserved policy flags.
	Common() *Base
	// Validate checks invariants after decoding or default construction.
	Validate() error
}

// Factory constructs a parameters value populated with its defaults. It is
// invoked once per request, before JSON decoding overlays wire values.
type Factory func() Parameters

// Base carries the three reserved policy flags every parameters type has.
type Base struct {
	// Annotate allows the processor to attach tags. Defaults to true.
	Annotate bool `json:"annotate"`
	// Modify allows the processor to rewrite the prompt or response.
	Modify bool `json:"modify"`
	// Reject allows the processor to stop the request.
	Reject bool `json:"reject"`
}

// NewBase returns the reserved flags with their documented defaults.
func NewBase() Base {
	return Base{Annotate: true}
}

// Common implements Parameters.
func (b *Base) Common() *Base { return b }

// Validate enforces that modify and reject are not both enabled.
func (b *Base) Validate() error {
	if b.Modify && b.Reject {
		return errors.New("modify and reject modes are mutually exclusive")
	}
	return nil
}

// Default is the empty parameters type for processors that take no
// configuration beyond the reserved flags.
type Default struct {
	Base
}

// DefaultFactory builds Default parameters.
func DefaultFactory() Parameters {
	return &Default{Base: NewBase()}
}

// Decode strictly parses a JSON parameters document into a fresh value from
// the factory. Unknown fields and type mismatches are rejected; each
// violation is reported as one message of the form "<msg>: <field path>".
func Decode(jsonText string, factory Factory) (Parameters, []string, error) {
	p := factory()

	dec := json.NewDecoder(strings.NewReader(jsonText))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, decodeMessages(err), err
	}
	// Trailing garbage after the document is a decode failure too.
	if dec.More() {
		err := errors.New("unexpected data after parameters document")
		return nil, []string{err.Error()}, err
	}

	if err := p.Validate(); err != nil {
		return nil, []string{err.Error()}, err
	}
	return p, nil, nil
}

// Defaults builds the factory's zero-argument parameters and validates
// them, reporting violations the same way Decode does.
func Defaults(factory Factory) (Parameters, []string, error) {
	p := factory()
	if err := p.Validate(); err != nil {
		return nil, []string{err.Error()}, err
	}
	return p, nil, nil
}

// decodeMessages converts an encoding/json error into violation messages.
func decodeMessages(err error) []string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if path == "" {
			path = "(document)"
		}
		return []string{fmt.Sprintf("expected %s but received %s: %s", typeErr.Type, typeErr.Value, path)}
	}

	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return []string{fmt.Sprintf("unknown field: %s", strings.Trim(field, `"`))}
	}
	return []string{msg}
}

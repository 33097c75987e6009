// Package tags implements the annotation map attached to processor results.
package tags

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tags maps lowercase keys to non-empty lists of lowercase tag values.
// Keys and values are normalized to lowercase on insert. The zero value is
// usable.
type Tags struct {
	m map[string][]string
}

// New builds a Tags from an initial map, validating every entry.
func New(initial map[string][]string) (*Tags, error) {
	t := &Tags{}
	for key, values := range initial {
		if err := t.Add(key, values...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("invalid key %q: all keys must be non-empty strings", key)
	}
	return nil
}

func validateValues(values []string) error {
	if len(values) < 1 {
		return fmt.Errorf("invalid list %v: must be a list with at least one element", values)
	}
	for _, v := range values {
		if v == "" {
			return fmt.Errorf("invalid list element %q: all values in list must be non-empty strings", v)
		}
	}
	return nil
}

// Add appends tags under key, lowercasing and de-duplicating values.
func (t *Tags) Add(key string, values ...string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := validateValues(values); err != nil {
		return err
	}

	key = strings.ToLower(key)
	if t.m == nil {
		t.m = make(map[string][]string)
	}
	existing := t.m[key]
	for _, v := range values {
		v = strings.ToLower(v)
		seen := false
		for _, e := range existing {
			if e == v {
				seen = true
				break
			}
		}
		if !seen {
			existing = append(existing, v)
		}
	}
	t.m[key] = existing
	return nil
}

// Remove deletes one tag value under key; removing the last value removes
// the key.
func (t *Tags) Remove(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("invalid list element %q: all values in list must be non-empty strings", value)
	}

	key = strings.ToLower(key)
	value = strings.ToLower(value)
	values, ok := t.m[key]
	if !ok {
		return nil
	}
	for i, v := range values {
		if v == value {
			values = append(values[:i], values[i+1:]...)
			break
		}
	}
	if len(values) == 0 {
		delete(t.m, key)
	} else {
		t.m[key] = values
	}
	return nil
}

// RemoveKey deletes a key and all of its tags.
func (t *Tags) RemoveKey(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	delete(t.m, strings.ToLower(key))
	return nil
}

// Get returns a copy of the tags under key, or an empty list.
func (t *Tags) Get(key string) ([]string, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	values := t.m[strings.ToLower(key)]
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

// All returns a deep copy of the full tag map.
func (t *Tags) All() map[string][]string {
	out := make(map[string][]string, len(t.m))
	for k, v := range t.m {
		values := make([]string, len(v))
		copy(values, v)
		out[k] = values
	}
	return out
}

// Len reports the number of keys.
func (t *Tags) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m)
}

// IsEmpty reports whether no tags are present. Empty collections never
// serialize as present on the wire.
func (t *Tags) IsEmpty() bool {
	return t.Len() == 0
}

// MarshalJSON serializes the tag map. encoding/json emits map keys sorted,
// which keeps the output stable.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.m)
}

// UnmarshalJSON decodes and validates a tag map.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fresh, err := New(raw)
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// String renders "key: [a, b]" pairs for logs.
func (t *Tags) String() string {
	parts := make([]string, 0, len(t.m))
	for k, v := range t.m {
		parts = append(parts, fmt.Sprintf("%s: [%s]", k, strings.Join(v, ", ")))
	}
	return strings.Join(parts, ", ")
}

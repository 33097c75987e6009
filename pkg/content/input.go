package content

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RequestInput is the prompt payload: an ordered list of messages.
type RequestInput struct {
	Messages []Message
}

// NewRequestInput builds a prompt from plain text as a single user message.
func NewRequestInput(text string) *RequestInput {
	return &RequestInput{Messages: []Message{NewMessage(text)}}
}

// UnmarshalJSON decodes a prompt, requiring the messages key.
func (r *RequestInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Messages *[]Message `json:"messages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Messages == nil {
		return errors.New("field required: messages")
	}
	r.Messages = *raw.Messages
	return nil
}

// MarshalJSON serializes the prompt in wire form.
func (r RequestInput) MarshalJSON() ([]byte, error) {
	messages := r.Messages
	if messages == nil {
		messages = []Message{}
	}
	return json.Marshal(struct {
		Messages []Message `json:"messages"`
	}{Messages: messages})
}

// Concatenate joins message contents with newlines, optionally filtered to
// the given roles.
func (r *RequestInput) Concatenate(roles ...string) string {
	var sb strings.Builder
	for _, m := range r.Messages {
		if len(roles) > 0 && !slices.Contains(roles, m.Role) {
			continue
		}
		sb.WriteString(m.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Hash returns a stable digest of the canonical JSON form. Used only for
// before/after change detection, not for anything cryptographic.
func (r *RequestInput) Hash() uint64 {
	return hashModel(r)
}

func hashModel(v any) uint64 {
	encoded, err := json.Marshal(v)
	if err != nil {
		// Domain models marshal from plain data; failure here would be a
		// programming defect. Hash the error text so callers still observe
		// a difference.
		return xxhash.Sum64String(err.Error())
	}
	return xxhash.Sum64(encoded)
}

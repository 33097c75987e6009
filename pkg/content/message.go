// Package content holds the typed domain models for prompt and response
// payloads exchanged with the gateway.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Message roles used in gateway conversations.
const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleDeveloper = "developer"
)

// Message is a single conversation message. Content may be JSON null on the
// wire (some clients send tool-call messages without content); a null or
// absent content survives a parse/serialize round trip as null. Any keys
// beyond content and role (tool_calls and friends) are preserved losslessly.
type Message struct {
	Content string
	Role    string

	nullContent bool
	extra       map[string]json.RawMessage
}

// NewMessage returns a user-role message with the given content.
func NewMessage(content string) Message {
	return Message{Content: content, Role: RoleUser}
}

// ContentIsNull reports whether the message content arrived as JSON null or
// was absent entirely. An "emptied" content (set to "" in code) is
// distinguished from an originally-null one by this flag.
func (m *Message) ContentIsNull() bool {
	return m.nullContent
}

// SetContent replaces the message content, clearing the null flag.
func (m *Message) SetContent(content string) {
	m.Content = content
	m.nullContent = false
}

// Extra returns a preserved passthrough field by key, if present.
func (m *Message) Extra(key string) (json.RawMessage, bool) {
	v, ok := m.extra[key]
	return v, ok
}

// UnmarshalJSON decodes a message, tracking null content and retaining
// unknown keys for lossless re-serialization.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Message{Role: RoleUser}

	if rawContent, ok := raw["content"]; !ok || bytes.Equal(rawContent, []byte("null")) {
		m.nullContent = true
	} else if err := json.Unmarshal(rawContent, &m.Content); err != nil {
		return fmt.Errorf("invalid message content: %w", err)
	}
	delete(raw, "content")

	if rawRole, ok := raw["role"]; ok {
		if err := json.Unmarshal(rawRole, &m.Role); err != nil {
			return fmt.Errorf("invalid message role: %w", err)
		}
		delete(raw, "role")
	}

	if len(raw) > 0 {
		m.extra = raw
	}
	return nil
}

// MarshalJSON serializes the message with deterministic key order so that
// content hashes are stable. Extra keys are emitted sorted after content
// and role.
func (m Message) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"content":`)
	if m.nullContent && m.Content == "" {
		buf.WriteString("null")
	} else {
		encoded, err := json.Marshal(m.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}

	role := m.Role
	if role == "" {
		role = RoleUser
	}
	buf.WriteString(`,"role":`)
	encodedRole, err := json.Marshal(role)
	if err != nil {
		return nil, err
	}
	buf.Write(encodedRole)

	keys := make([]string, 0, len(m.extra))
	for k := range m.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		encodedKey, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(m.extra[k])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

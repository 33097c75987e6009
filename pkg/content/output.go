package content

import (
	"encoding/json"
	"errors"
)

// Choice is one completion returned by an upstream model.
type Choice struct {
	Message Message
}

// UnmarshalJSON decodes a choice, requiring the message key.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message *Message `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Message == nil {
		return errors.New("field required: message")
	}
	c.Message = *raw.Message
	return nil
}

// MarshalJSON serializes the choice in wire form.
func (c Choice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message Message `json:"message"`
	}{Message: c.Message})
}

// ResponseOutput is the LLM response payload: an ordered list of choices.
type ResponseOutput struct {
	Choices []Choice
}

// NewResponseOutput builds a response from plain text as a single choice.
func NewResponseOutput(text string) *ResponseOutput {
	return &ResponseOutput{Choices: []Choice{{Message: NewMessage(text)}}}
}

// UnmarshalJSON decodes a response, requiring the choices key.
func (o *ResponseOutput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Choices *[]Choice `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Choices == nil {
		return errors.New("field required: choices")
	}
	o.Choices = *raw.Choices
	return nil
}

// MarshalJSON serializes the response in wire form.
func (o ResponseOutput) MarshalJSON() ([]byte, error) {
	choices := o.Choices
	if choices == nil {
		choices = []Choice{}
	}
	return json.Marshal(struct {
		Choices []Choice `json:"choices"`
	}{Choices: choices})
}

// Hash returns a stable digest of the canonical JSON form, matching the
// RequestInput hashing contract.
func (o *ResponseOutput) Hash() uint64 {
	return hashModel(o)
}

package processor

import (
	"encoding/json"
	"fmt"
	"net/http"

	"prochost/pkg/multipart"
)

// Error is the one error family the dispatch core raises. It carries an
// HTTP-equivalent status, a stable detail string the gateway matches on,
// and optionally one message per underlying validation violation. The
// outermost handler converts it to a JSON error response; anything else
// escaping the core is a programming defect and gets wrapped once into the
// generic execution error.
type Error struct {
	Status   int
	Detail   string
	Messages []string
}

func (e *Error) Error() string {
	return e.Detail
}

// JSONBody renders the wire form {"detail": ..., "messages": [...]} with
// messages omitted when empty.
func (e *Error) JSONBody() []byte {
	body := struct {
		Detail   string   `json:"detail"`
		Messages []string `json:"messages,omitempty"`
	}{Detail: e.Detail, Messages: e.Messages}
	encoded, err := json.Marshal(body)
	if err != nil {
		return []byte(`{"detail":"problem creating response object"}`)
	}
	return encoded
}

// errUnexpectedContentType covers the 415-class transport errors.
func errUnexpectedContentType(detail string) *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Detail: detail}
}

// errInvalidEncoding reports a charset outside the allow-list.
func errInvalidEncoding(encoding string) *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Detail: fmt.Sprintf("Unsupported text encoding: %s", encoding),
	}
}

// errInvalidFields reports an illegal field combination for the signature.
func errInvalidFields(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// errMissingField reports an absent required part.
func errMissingField(fieldName string) *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Detail: fmt.Sprintf("%s part is missing", fieldName),
	}
}

// errMissingPromptAndResponse reports a request with neither direction.
func errMissingPromptAndResponse() *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Detail: fmt.Sprintf("%s (prompt) and %s (response) fields are missing - at least one is required",
			multipart.FieldInput, multipart.FieldResponse),
	}
}

// errMultipartParse reports a malformed multipart body or part.
func errMultipartParse(detail string) *Error {
	if detail == "" {
		detail = "Unable to parse multipart form field"
	}
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// errMetadataParse reports an invalid metadata part.
func errMetadataParse(detail string) *Error {
	if detail == "" {
		detail = "invalid metadata submitted"
	}
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// errPromptParse reports an invalid prompt part.
func errPromptParse(messages []string) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Detail:   "invalid prompt field submitted",
		Messages: messages,
	}
}

// errResponseParse reports an invalid response part.
func errResponseParse(messages []string) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Detail:   "invalid response field submitted",
		Messages: messages,
	}
}

// errParametersParse reports invalid parameters.
func errParametersParse(messages []string) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Detail:   "invalid parameters submitted",
		Messages: messages,
	}
}

// ErrExecution is the generic failure while running user process logic.
// Internals never leak to the client; the cause is logged server-side.
func ErrExecution() *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Detail: "problem executing processor implementation",
	}
}

func errExecutionDetail(detail string) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail}
}

// ErrResponseObject is the failure building the outgoing response.
func ErrResponseObject() *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Detail: "problem creating response object",
	}
}

// NewError builds a processor error for user process functions that need to
// surface a specific status and detail to the gateway.
func NewError(status int, detail string, messages ...string) *Error {
	return &Error{Status: status, Detail: detail, Messages: messages}
}

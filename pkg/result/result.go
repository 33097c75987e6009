// Package result defines the outcomes a processor can return: continue
// (Result, possibly with modifications and annotations) or stop (Reject).
package result

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"prochost/pkg/content"
	"prochost/pkg/multipart"
	"prochost/pkg/tags"
)

// Outcome is the closed set of values a process function may return. Only
// Result and Reject implement it; the dispatch core matches exhaustively
// and treats anything else as a hard server error.
type Outcome interface {
	outcome()
}

// Result means "continue processing". It may rewrite the prompt or the
// response (never both), attach metadata, a processor-specific result
// document, or tags.
type Result struct {
	ModifiedPrompt   *content.RequestInput
	ModifiedResponse *content.ResponseOutput
	Metadata         content.Metadata
	ProcessorResult  content.Metadata
	Tags             *tags.Tags
}

func (*Result) outcome() {}

// Validate enforces the mutual exclusivity of the two modification fields.
// If a response is present the request is in the response stage, so a
// prompt modification could have no effect.
func (r *Result) Validate() error {
	if r.ModifiedPrompt != nil && r.ModifiedResponse != nil {
		return errors.New("modified_prompt and modified_response are mutually exclusive")
	}
	return nil
}

// Modified reports whether either modification field is set.
func (r *Result) Modified() bool {
	return r.ModifiedPrompt != nil || r.ModifiedResponse != nil
}

// IsEmpty reports whether nothing at all is set on the result.
func (r *Result) IsEmpty() bool {
	return len(r.Metadata) == 0 &&
		r.ModifiedPrompt == nil &&
		r.ModifiedResponse == nil &&
		len(r.ProcessorResult) == 0 &&
		r.Tags.IsEmpty()
}

// ValidateAllowed drops modifications and annotations the request
// parameters do not permit, logging a warning for each drop. Runs strictly
// after no-op elimination so an unchanged modification never warns.
func (r *Result) ValidateAllowed(logger *slog.Logger, processorName string, annotate, modify bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if r.Modified() && !modify {
		logger.Warn("processor tried to modify request when parameters.modify was set to false, modification will be dropped",
			"processor", processorName)
		r.ModifiedPrompt = nil
		r.ModifiedResponse = nil
	}
	if !r.Tags.IsEmpty() && !annotate {
		logger.Warn("processor tried to annotate request with tags when parameters.annotate was set to false, tags will be dropped",
			"processor", processorName)
		r.Tags = nil
	}
}

// ResponseFields converts the result to its wire parts and status code.
// An empty result yields no parts and 204; otherwise the processor result
// and tags are folded into metadata under reserved keys and metadata is
// emitted alongside at most one modification part.
func (r *Result) ResponseFields() ([]multipart.Field, int, error) {
	if r.IsEmpty() {
		return nil, http.StatusNoContent, nil
	}
	if r.Metadata == nil {
		r.Metadata = content.Metadata{}
	}

	if len(r.ProcessorResult) > 0 {
		r.Metadata["processor_result"] = r.ProcessorResult
	}
	if !r.Tags.IsEmpty() {
		r.Metadata["tags"] = r.Tags.All()
	}

	metadataField, err := metadataToField(r.Metadata)
	if err != nil {
		return nil, 0, err
	}
	fields := []multipart.Field{metadataField}

	switch {
	case r.ModifiedResponse != nil:
		encoded, err := json.Marshal(r.ModifiedResponse)
		if err != nil {
			return nil, 0, err
		}
		fields = append(fields, multipart.Field{
			Name:        multipart.FieldResponse,
			Content:     string(encoded),
			ContentType: multipart.JSONContentType,
		})
	case r.ModifiedPrompt != nil:
		encoded, err := json.Marshal(r.ModifiedPrompt)
		if err != nil {
			return nil, 0, err
		}
		fields = append(fields, multipart.Field{
			Name:        multipart.FieldInput,
			Content:     string(encoded),
			ContentType: multipart.JSONContentType,
		})
	}

	return fields, http.StatusOK, nil
}

func metadataToField(meta content.Metadata) (multipart.Field, error) {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return multipart.Field{}, err
	}
	return multipart.Field{
		Name:        multipart.FieldMetadata,
		Content:     string(encoded),
		ContentType: multipart.JSONContentType,
	}, nil
}

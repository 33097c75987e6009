package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	gomultipart "mime/multipart"
	"net/http"
	"strings"

	"prochost/pkg/content"
	"prochost/pkg/multipart"
	"prochost/pkg/params"
)

// formField is one decoded part of the inbound form. file marks parts that
// arrived with a filename in Content-Disposition; the wire treats those and
// inline values interchangeably, so the transform layer reconciles them
// against the processor's declared prompt/response mode.
type formField struct {
	value string
	file  bool
}

type form map[string]formField

// validateContentType checks the Content-Type header and returns the
// boundary and root charset. These are the 415-class transport errors.
func validateContentType(r *http.Request) (boundary, rootCharset string, err *Error) {
	values, present := r.Header["Content-Type"]
	if !present || len(values) == 0 {
		return "", "", errUnexpectedContentType("Content-Type header missing")
	}
	raw := values[0]
	if strings.TrimSpace(raw) == "" {
		return "", "", errUnexpectedContentType("Content-Type header is empty")
	}

	mediaType, mediaParams, parseErr := mime.ParseMediaType(raw)
	if parseErr != nil || mediaType != "multipart/form-data" {
		return "", "", errUnexpectedContentType("Content-Type header mismatch - expecting: multipart/form-data")
	}
	boundary = mediaParams["boundary"]
	if boundary == "" {
		return "", "", errUnexpectedContentType("Content-Type header missing boundary")
	}

	rootCharset = strings.ToLower(mediaParams["charset"])
	if rootCharset == "" {
		rootCharset = multipart.DefaultEncoding
	}
	return boundary, rootCharset, nil
}

// parseForm reads the multipart body into named fields, capped at the
// count of known field names, decoding text with the per-part charset when
// one is declared and the root charset otherwise.
func parseForm(body io.Reader, boundary, rootCharset string) (form, *Error) {
	reader := gomultipart.NewReader(body, boundary)
	fields := make(form)

	for count := 0; ; {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errMultipartParse(fmt.Sprintf("Unable to parse multipart form field: %v", err))
		}

		count++
		if count > multipart.MaxFields {
			part.Close()
			return nil, errMultipartParse(fmt.Sprintf("too many multipart fields - at most %d are allowed", multipart.MaxFields))
		}

		name := part.FormName()
		raw, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, errMultipartParse(fmt.Sprintf("Unable to parse multipart form field: %v", err))
		}
		if name == "" {
			continue
		}

		charset := rootCharset
		if partCharset := partContentTypeCharset(part.Header.Get("Content-Type")); partCharset != "" {
			charset = partCharset
		}
		if !multipart.AllowedEncodings[charset] {
			return nil, errInvalidEncoding(charset)
		}
		text, decodeErr := multipart.DecodeText(charset, raw)
		if decodeErr != nil {
			return nil, errMultipartParse(fmt.Sprintf("Unable to decode field [%s]: %v", name, decodeErr))
		}

		// First occurrence wins, matching form semantics.
		if _, seen := fields[name]; !seen {
			fields[name] = formField{value: text, file: part.FileName() != ""}
		}
	}

	return fields, nil
}

func partContentTypeCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, mediaParams, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaParams["charset"])
}

// transformParameters decodes the parameters part, or constructs the
// defaults when the request has none. Both paths surface violations as one
// message per problem.
func (p *Processor) transformParameters(f form, fieldName string) (params.Parameters, *Error) {
	if fieldName == "" {
		parameters, messages, err := params.Defaults(p.paramsFactory)
		if err != nil {
			return nil, errParametersParse(messages)
		}
		return parameters, nil
	}

	jsonText := f[fieldName].value
	if p.paramsSchema != nil {
		messages, err := params.ValidateSchema(jsonText, p.paramsSchema)
		if err != nil {
			return nil, errParametersParse([]string{err.Error()})
		}
		if len(messages) > 0 {
			return nil, errParametersParse(messages)
		}
	}

	parameters, messages, err := params.Decode(jsonText, p.paramsFactory)
	if err != nil {
		return nil, errParametersParse(messages)
	}
	return parameters, nil
}

// transformMetadata decodes the metadata part into an open JSON object.
func transformMetadata(f form) (content.Metadata, *Error) {
	field, ok := f[multipart.FieldMetadata]
	if !ok {
		return content.Metadata{}, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(field.value), &decoded); err != nil {
		return nil, errMultipartParse(fmt.Sprintf("Unable to parse JSON field [%s]: %v", multipart.FieldMetadata, err))
	}
	object, ok := decoded.(map[string]any)
	if !ok {
		return nil, errMetadataParse("metadata must be a JSON object")
	}
	return content.Metadata(object), nil
}

// transformPrompt converts the prompt part into the processor's declared
// prompt view. The wire cannot distinguish a filename-bearing attachment
// from inline form data, so raw text is wrapped into a single message for
// structured processors and structured JSON text is wrapped into a stream
// for streaming processors.
func (p *Processor) transformPrompt(f form) (*Prompt, *Error) {
	field, ok := f[multipart.FieldInput]
	if !ok {
		return nil, nil
	}

	if p.streamingPrompt {
		return &Prompt{Stream: strings.NewReader(field.value)}, nil
	}
	if field.file {
		return &Prompt{Messages: content.NewRequestInput(field.value)}, nil
	}

	input, err := decodeModelField[content.RequestInput](multipart.FieldInput, field.value, errPromptParse)
	if err != nil {
		return nil, err
	}
	return &Prompt{Messages: input}, nil
}

// transformResponse converts the response part into the processor's
// declared response view with the same attachment reconciliation as
// transformPrompt.
func (p *Processor) transformResponse(f form) (*Response, *Error) {
	field, ok := f[multipart.FieldResponse]
	if !ok {
		return nil, nil
	}

	if p.streamingResp {
		return &Response{Stream: strings.NewReader(field.value)}, nil
	}
	if field.file {
		return &Response{Choices: content.NewResponseOutput(field.value)}, nil
	}

	output, err := decodeModelField[content.ResponseOutput](multipart.FieldResponse, field.value, errResponseParse)
	if err != nil {
		return nil, err
	}
	return &Response{Choices: output}, nil
}

// decodeModelField parses a JSON part into a domain model. Syntax failures
// report the field name and reason; model validation failures use the
// field-specific error class with one message per violation.
func decodeModelField[T any](fieldName, jsonText string, validationErr func([]string) *Error) (*T, *Error) {
	var probe any
	if err := json.Unmarshal([]byte(jsonText), &probe); err != nil {
		return nil, errMultipartParse(fmt.Sprintf("Unable to parse JSON field [%s]: %v", fieldName, err))
	}

	var model T
	if err := json.Unmarshal([]byte(jsonText), &model); err != nil {
		return nil, validationErr([]string{err.Error()})
	}
	return &model, nil
}

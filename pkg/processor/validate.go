package processor

import (
	"fmt"

	"prochost/pkg/multipart"
)

// validateFields checks the parsed form against the processor signature and
// determines which parameters field, if any, applies to this request. The
// returned direction reflects what the request carries: a response part means
// the response stage regardless of whether a prompt accompanies it.
func (p *Processor) validateFields(f form) (paramsField string, direction string, err *Error) {
	for name := range multipart.RequiredFields {
		if _, ok := f[name]; !ok {
			return "", "", errMissingField(name)
		}
	}

	_, hasPrompt := f[multipart.FieldInput]
	_, hasResponse := f[multipart.FieldResponse]
	_, hasInputParams := f[multipart.FieldInputParameters]
	_, hasResponseParams := f[multipart.FieldResponseParameters]

	if !hasPrompt && !hasResponse {
		return "", "", errMissingPromptAndResponse()
	}

	// Every required field must be present regardless of its direction: a
	// signature requiring the prompt alongside the response rejects a
	// response-stage request that omits it.
	if hasResponse {
		if !p.sig.SupportsResponse() {
			return "", "", errInvalidFields("Processor signature does not allow response fields")
		}
		for _, field := range p.sig.Required() {
			if _, ok := f[string(field)]; !ok {
				return "", "", errInvalidFields(fmt.Sprintf("Missing required field for response: %s", field))
			}
		}
	} else {
		if !p.sig.SupportsInput() {
			return "", "", errInvalidFields("Processor signature does not allow input fields")
		}
		for _, field := range p.sig.Required() {
			if _, ok := f[string(field)]; !ok {
				return "", "", errInvalidFields(fmt.Sprintf("Missing required field for input: %s", field))
			}
		}
	}

	if hasResponse && hasInputParams {
		return "", "", errInvalidFields("prompt parameters cannot be present with response.choices field")
	}
	if !hasResponse && hasResponseParams {
		return "", "", errInvalidFields("response parameters cannot be present with only a input.messages field")
	}

	direction = DirectionInput
	paramsField = ""
	if hasResponse {
		direction = DirectionResponse
		if hasResponseParams {
			paramsField = multipart.FieldResponseParameters
		}
	} else if hasInputParams {
		paramsField = multipart.FieldInputParameters
	}

	return paramsField, direction, nil
}

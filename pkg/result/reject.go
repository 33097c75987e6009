package result

import (
	"encoding/json"
	"net/http"

	"prochost/pkg/content"
	"prochost/pkg/multipart"
	"prochost/pkg/tags"
)

// RejectCode classifies why a processor stopped a request.
type RejectCode string

const rejectPrefix = "AIGW_"

// Reject codes shared with the gateway.
const (
	RejectAuthentication       RejectCode = rejectPrefix + "AUTHENTICATION"
	RejectAuthorization        RejectCode = rejectPrefix + "AUTHORIZATION"
	RejectPolicyViolation      RejectCode = rejectPrefix + "POLICY_VIOLATION"
	RejectRateLimit            RejectCode = rejectPrefix + "RATE_LIMIT"
	RejectResourceAvailability RejectCode = rejectPrefix + "RESOURCE_AVAILABILITY"
	RejectTimeout              RejectCode = rejectPrefix + "TIMEOUT"
	RejectValidation           RejectCode = rejectPrefix + "VALIDATION"
)

// Reject means "stop processing" with a reason. It is a normal, successful
// gateway-level response, not an HTTP error.
type Reject struct {
	Code            RejectCode
	Detail          string
	Metadata        content.Metadata
	Tags            *tags.Tags
	ProcessorResult content.Metadata
}

func (*Reject) outcome() {}

// IsEmpty always reports false: the code and detail fields are required.
func (r *Reject) IsEmpty() bool { return false }

// rejectBody is the wire form of the reject part. Metadata and tags are
// excluded here because they travel in the metadata part.
type rejectBody struct {
	Code            RejectCode       `json:"code"`
	Detail          string           `json:"detail"`
	ProcessorResult content.Metadata `json:"processor_result"`
}

// ResponseFields converts the reject to its wire parts: the reject part
// plus the metadata part (always last in the serialized stream).
func (r *Reject) ResponseFields() ([]multipart.Field, int, error) {
	if r.Metadata == nil {
		r.Metadata = content.Metadata{}
	}
	if !r.Tags.IsEmpty() {
		r.Metadata["tags"] = r.Tags.All()
	}
	if len(r.ProcessorResult) > 0 {
		r.Metadata["processor_result"] = r.ProcessorResult
	}

	encoded, err := json.Marshal(rejectBody{
		Code:            r.Code,
		Detail:          r.Detail,
		ProcessorResult: r.ProcessorResult,
	})
	if err != nil {
		return nil, 0, err
	}
	metadataField, err := metadataToField(r.Metadata)
	if err != nil {
		return nil, 0, err
	}

	fields := []multipart.Field{
		{Name: multipart.FieldReject, Content: string(encoded), ContentType: multipart.JSONContentType},
		metadataField,
	}
	return fields, http.StatusOK, nil
}

package processor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"prochost/pkg/content"
	"prochost/pkg/multipart"
	"prochost/pkg/params"
	"prochost/pkg/result"
)

// ExecuteHandler returns the handler for the execute endpoint. HEAD
// advertises the response content type; POST runs the full dispatch.
func (p *Processor) ExecuteHandler() http.Handler {
	return http.HandlerFunc(p.handleExecute)
}

func (p *Processor) handleExecute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "multipart/form-data;charset="+multipart.DefaultEncoding)
		w.WriteHeader(http.StatusOK)
		p.observeRequest("none", http.StatusOK, start)
		return
	}
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Only POST requests are supported")
		p.observeRequest("none", http.StatusMethodNotAllowed, start)
		return
	}

	direction, status := p.execute(w, r)
	p.observeRequest(direction, status, start)
}

// execute runs one request through the dispatch pipeline: transport
// validation, field extraction, invocation, outcome normalization, policy
// gating, serialization. Every failure mode maps to a contract error with
// a stable detail string.
func (p *Processor) execute(w http.ResponseWriter, r *http.Request) (direction string, status int) {
	direction = "unknown"

	boundary, rootCharset, herr := validateContentType(r)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}

	f, herr := parseForm(r.Body, boundary, rootCharset)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}

	paramsField, direction, herr := p.validateFields(f)
	if herr != nil {
		return "unknown", p.writeError(w, herr)
	}

	parameters, herr := p.transformParameters(f, paramsField)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}
	metadata, herr := transformMetadata(f)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}
	prompt, herr := p.transformPrompt(f)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}
	response, herr := p.transformResponse(f)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}

	// Hash structured content before invocation so no-op modifications can
	// be detected afterwards. Streaming views are never hashed; any
	// modification returned for them counts as a real change.
	var promptHash, responseHash uint64
	var promptHashed, responseHashed bool
	if direction == DirectionInput && prompt != nil && prompt.Messages != nil {
		promptHash = prompt.Messages.Hash()
		promptHashed = true
	}
	if direction == DirectionResponse && response != nil && response.Choices != nil {
		responseHash = response.Choices.Hash()
		responseHashed = true
	}

	outcome, err := p.invoke(r.Context(), direction, prompt, response, metadata, parameters, r)
	if err != nil {
		if perr, ok := err.(*Error); ok {
			return direction, p.writeError(w, perr)
		}
		p.logger.Error("processor implementation failed",
			"processor", p.ID(),
			"direction", direction,
			"error", err,
		)
		return direction, p.writeError(w, ErrExecution())
	}
	if outcome == nil {
		return direction, p.writeError(w, errExecutionDetail(
			fmt.Sprintf("Processor[%s] returned no result", p.ID()),
		))
	}

	base := parameters.Common()
	fields, status, herr := p.normalize(outcome, metadata, base, promptHash, promptHashed, responseHash, responseHashed)
	if herr != nil {
		return direction, p.writeError(w, herr)
	}

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return direction, status
	}

	respBoundary, berr := multipart.GenerateBoundary(p.rand, boundarySize)
	if berr != nil {
		p.logger.Error("generating response boundary", "processor", p.ID(), "error", berr)
		return direction, p.writeError(w, ErrResponseObject())
	}

	w.Header().Set("Content-Type", multipart.ContentTypeFor(respBoundary))
	w.WriteHeader(status)
	if werr := multipart.EncodeFields(w, respBoundary, fields); werr != nil {
		// Headers are already on the wire; nothing more can be sent.
		p.logger.Error("writing multipart response", "processor", p.ID(), "error", werr)
	}
	return direction, status
}

// invoke calls the process function for the request direction, converting
// a panic in the implementation into an execution error.
func (p *Processor) invoke(
	ctx context.Context,
	direction string,
	prompt *Prompt,
	response *Response,
	metadata content.Metadata,
	parameters params.Parameters,
	r *http.Request,
) (out result.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("processor implementation panicked",
				"processor", p.ID(),
				"direction", direction,
				"panic", rec,
			)
			out, err = nil, ErrExecution()
		}
	}()

	if direction == DirectionInput {
		return p.input(ctx, prompt, metadata, parameters, r)
	}
	return p.response(ctx, prompt, response, metadata, parameters, r)
}

// normalize stamps provenance metadata onto the outcome, discards no-op
// modifications, applies the annotate/modify/reject gates, and converts
// the outcome to its wire parts.
func (p *Processor) normalize(
	outcome result.Outcome,
	requestMeta content.Metadata,
	base *params.Base,
	promptHash uint64, promptHashed bool,
	responseHash uint64, responseHashed bool,
) ([]multipart.Field, int, *Error) {
	switch out := outcome.(type) {
	case *result.Result:
		if verr := out.Validate(); verr != nil {
			p.logger.Error("invalid processor result", "processor", p.ID(), "error", verr)
			return nil, 0, ErrExecution()
		}
		out.Metadata = p.stampMetadata(out.Metadata, requestMeta, out.IsEmpty())

		modified := (out.ModifiedPrompt != nil && (!promptHashed || promptHash != out.ModifiedPrompt.Hash())) ||
			(out.ModifiedResponse != nil && (!responseHashed || responseHash != out.ModifiedResponse.Hash()))

		// The gateway already holds the submitted content, so echoing an
		// identical copy back is wasted transfer.
		if !modified && out.Modified() {
			out.ModifiedPrompt = nil
			out.ModifiedResponse = nil
		}

		out.ValidateAllowed(p.logger, p.Name(), base.Annotate, base.Modify)

		annotated := len(out.ProcessorResult) > 0 || !out.Tags.IsEmpty()
		p.observeOutcome(false, out.Modified(), annotated)

		fields, status, ferr := out.ResponseFields()
		if ferr != nil {
			p.logger.Error("serializing result", "processor", p.ID(), "error", ferr)
			return nil, 0, ErrResponseObject()
		}
		return fields, status, nil

	case *result.Reject:
		out.Metadata = p.stampMetadata(out.Metadata, requestMeta, false)

		if !base.Reject {
			p.logger.Warn("rejection dropped: parameters.reject is false",
				"processor", p.ID(),
			)
			downgraded := &result.Result{Metadata: out.Metadata}
			p.observeOutcome(false, false, false)
			fields, status, ferr := downgraded.ResponseFields()
			if ferr != nil {
				p.logger.Error("serializing result", "processor", p.ID(), "error", ferr)
				return nil, 0, ErrResponseObject()
			}
			return fields, status, nil
		}

		p.observeOutcome(true, false, false)
		fields, status, ferr := out.ResponseFields()
		if ferr != nil {
			p.logger.Error("serializing rejection", "processor", p.ID(), "error", ferr)
			return nil, 0, ErrResponseObject()
		}
		return fields, status, nil
	}

	p.logger.Error("unexpected outcome type", "processor", p.ID(), "outcome", fmt.Sprintf("%T", outcome))
	return nil, 0, ErrResponseObject()
}

// stampMetadata adds the provenance keys to outcome metadata: processor
// identity and version, the gateway correlation ids forwarded from the
// request, and the host application details when configured. An empty
// outcome stays empty so it can serialize as 204.
func (p *Processor) stampMetadata(meta, requestMeta content.Metadata, empty bool) content.Metadata {
	if meta == nil {
		if empty {
			return nil
		}
		meta = content.Metadata{}
	}

	meta["processor_id"] = p.ID()
	meta["processor_version"] = p.Version()

	if requestID, ok := requestMeta["request_id"]; ok {
		meta["request_id"] = requestID
	}
	if stepID, ok := requestMeta["step_id"]; ok {
		meta["step_id"] = stepID
	}
	if p.appDetails != nil {
		meta["app_details"] = p.appDetails
	}
	return meta
}

// writeError sends the contract error as a JSON body. Client errors are the
// caller's problem and are not logged; server errors are.
func (p *Processor) writeError(w http.ResponseWriter, e *Error) int {
	if e.Status >= 500 {
		p.logger.Error("request failed", "processor", p.ID(), "status", e.Status, "detail", e.Detail)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	w.Write(e.JSONBody())
	return e.Status
}

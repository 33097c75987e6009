// Package processor implements the contract-enforcement core between an AI
// gateway and pluggable processor logic: multipart request parsing, field
// validation against a declared signature, invocation of user process
// functions, and policy-gated response assembly.
package processor

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"prochost/pkg/content"
	"prochost/pkg/params"
	"prochost/pkg/result"
	"prochost/pkg/signature"
)

// boundarySize is the length of the random boundary on serialized
// responses.
const boundarySize = 64

// Request directions.
const (
	DirectionInput    = "input"
	DirectionResponse = "response"
)

// Prompt is the prompt view handed to process functions. Exactly one field
// is set, depending on the processor's declared prompt mode: Messages for
// structured processors, Stream for raw-text processors.
type Prompt struct {
	Messages *content.RequestInput
	Stream   io.Reader
}

// Response is the response view handed to process functions, with the same
// structured/stream split as Prompt.
type Response struct {
	Choices *content.ResponseOutput
	Stream  io.Reader
}

// InputFunc handles an input-direction request. It must return a
// *result.Result or *result.Reject; errors of type *Error propagate with
// their own status, any other error becomes a generic execution failure.
type InputFunc func(ctx context.Context, prompt *Prompt, meta content.Metadata, p params.Parameters, req *http.Request) (result.Outcome, error)

// ResponseFunc handles a response-direction request. The prompt is present
// only when the gateway forwarded it alongside the response.
type ResponseFunc func(ctx context.Context, prompt *Prompt, resp *Response, meta content.Metadata, p params.Parameters, req *http.Request) (result.Outcome, error)

// Observer receives best-effort telemetry from the dispatch core. Every
// method must be cheap and must never fail; a nil Observer disables
// observation entirely.
type Observer interface {
	ObserveRequest(processorID, direction string, status int, duration time.Duration)
	ObserveOutcome(processorID string, rejected, modified, annotated bool)
}

// Config declares a processor. The capability contract is explicit: a
// declared direction must come with the matching process function, checked
// when the processor is constructed rather than inferred at call time.
type Config struct {
	Name      string
	Version   string
	Namespace string
	Signature signature.Signature

	Input    InputFunc
	Response ResponseFunc

	// Parameters builds the processor's default parameters; nil means the
	// reserved flags only. ParametersSchema optionally declares a JSON
	// Schema for wire-level validation and introspection; when nil one is
	// derived from the parameters type by reflection.
	Parameters       params.Factory
	ParametersSchema map[string]any

	// StreamingPrompt/StreamingResponse switch the corresponding view from
	// the structured model to a raw text stream.
	StreamingPrompt   bool
	StreamingResponse bool

	// AppDetails is forwarded into outcome metadata when set.
	AppDetails map[string]any

	Logger   *slog.Logger
	Observer Observer

	// Rand is the randomness source for response boundaries. Defaults to
	// crypto/rand.
	Rand io.Reader
}

// Processor enforces the gateway contract for one processor definition.
// The definition is immutable after construction and shared read-only
// across requests; all per-request state lives on the stack of a single
// dispatch.
type Processor struct {
	name      string
	version   string
	namespace string
	sig       signature.Signature

	input    InputFunc
	response ResponseFunc

	paramsFactory   params.Factory
	paramsSchema    map[string]any
	streamingPrompt bool
	streamingResp   bool
	appDetails      map[string]any

	logger   *slog.Logger
	observer Observer
	rand     io.Reader
}

// New validates a processor definition and builds the immutable Processor.
func New(cfg Config) (*Processor, error) {
	if containsWhitespace(cfg.Name) {
		return nil, errors.New("processor name cannot contain whitespace")
	}
	if containsWhitespace(cfg.Version) {
		return nil, errors.New("processor version cannot contain whitespace")
	}
	if containsWhitespace(cfg.Namespace) {
		return nil, errors.New("processor namespace cannot contain whitespace")
	}
	if cfg.Name == "" || cfg.Version == "" || cfg.Namespace == "" {
		return nil, errors.New("processor name, version and namespace are required")
	}
	if cfg.Signature.IsZero() {
		return nil, errors.New("processor must define a signature")
	}
	if cfg.Input == nil && cfg.Response == nil {
		return nil, errors.New("processor must provide at least one process function")
	}
	if cfg.Signature.SupportsInput() && cfg.Input == nil {
		return nil, errors.New("signature supports input but no input process function is provided")
	}
	if cfg.Signature.SupportsResponse() && cfg.Response == nil {
		return nil, errors.New("signature supports response but no response process function is provided")
	}

	factory := cfg.Parameters
	if factory == nil {
		factory = params.DefaultFactory
	}
	// The zero-argument defaults must themselves be valid, otherwise every
	// request without a parameters part would fail.
	if _, _, err := params.Defaults(factory); err != nil {
		return nil, fmt.Errorf("default parameters are invalid: %w", err)
	}

	schema := cfg.ParametersSchema
	if schema == nil {
		schema = params.SchemaFor(factory())
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.Reader
	}

	return &Processor{
		name:            cfg.Name,
		version:         cfg.Version,
		namespace:       cfg.Namespace,
		sig:             cfg.Signature,
		input:           cfg.Input,
		response:        cfg.Response,
		paramsFactory:   factory,
		paramsSchema:    schema,
		streamingPrompt: cfg.StreamingPrompt,
		streamingResp:   cfg.StreamingResponse,
		appDetails:      cfg.AppDetails,
		logger:          logger,
		observer:        cfg.Observer,
		rand:            rng,
	}, nil
}

func containsWhitespace(s string) bool {
	return strings.ContainsFunc(s, unicode.IsSpace)
}

// Name returns the processor name.
func (p *Processor) Name() string { return p.name }

// Version returns the processor version.
func (p *Processor) Version() string { return p.version }

// Namespace returns the processor namespace.
func (p *Processor) Namespace() string { return p.namespace }

// Signature returns the declared capability contract.
func (p *Processor) Signature() signature.Signature { return p.sig }

// ID is the namespaced identifier stamped into outcome metadata.
func (p *Processor) ID() string {
	return p.namespace + ":" + p.name
}

// NamespacedPath is the lowercase path segment identifying the processor.
func (p *Processor) NamespacedPath() string {
	return strings.ToLower(p.namespace) + "/" + strings.ToLower(p.name)
}

// ExecutePath is the relative execute endpoint path.
func (p *Processor) ExecutePath() string {
	return "/execute/" + p.NamespacedPath()
}

// SignaturePath is the relative signature endpoint path.
func (p *Processor) SignaturePath() string {
	return "/signature/" + p.NamespacedPath()
}

func (p *Processor) observeRequest(direction string, status int, start time.Time) {
	if p.observer != nil {
		p.observer.ObserveRequest(p.ID(), direction, status, time.Since(start))
	}
}

func (p *Processor) observeOutcome(rejected, modified, annotated bool) {
	if p.observer != nil {
		p.observer.ObserveOutcome(p.ID(), rejected, modified, annotated)
	}
}

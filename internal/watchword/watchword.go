// Package watchword is the bundled example processor. It scans prompt and
// response content for configured words: flag words are reported as tags,
// block words reject the request when rejection is enabled and are redacted
// when modification is enabled.
package watchword

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"prochost/internal/config"
	"prochost/pkg/content"
	"prochost/pkg/params"
	"prochost/pkg/processor"
	"prochost/pkg/result"
	"prochost/pkg/signature"
	"prochost/pkg/tags"
)

const (
	processorName    = "watchword"
	processorVersion = "1.0.0"
	namespace        = "examples"

	tagKey = "watchword"
)

// Parameters configures one execution. The word lists replace the
// host-level defaults when present.
type Parameters struct {
	params.Base
	FlagWords   []string `json:"flag_words"`
	BlockWords  []string `json:"block_words"`
	Replacement string   `json:"replacement"`
}

// Validate extends the reserved-flag check with the processor's own rules.
func (p *Parameters) Validate() error {
	if err := p.Base.Validate(); err != nil {
		return err
	}
	for _, w := range p.BlockWords {
		if strings.TrimSpace(w) == "" {
			return errors.New("block_words entries must be non-empty")
		}
	}
	for _, w := range p.FlagWords {
		if strings.TrimSpace(w) == "" {
			return errors.New("flag_words entries must be non-empty")
		}
	}
	return nil
}

// New builds the watchword processor with the host defaults applied to
// requests that carry no parameters.
func New(cfg config.WatchwordConfig, logger *slog.Logger, observer processor.Observer) (*processor.Processor, error) {
	w := &watchword{defaults: cfg}
	if w.defaults.Replacement == "" {
		w.defaults.Replacement = "*****"
	}

	return processor.New(processor.Config{
		Name:      processorName,
		Version:   processorVersion,
		Namespace: namespace,
		Signature: signature.Both,
		Input:     w.processInput,
		Response:  w.processResponse,
		Parameters: func() params.Parameters {
			return &Parameters{
				Base:        params.NewBase(),
				FlagWords:   w.defaults.FlagWords,
				BlockWords:  w.defaults.BlockWords,
				Replacement: w.defaults.Replacement,
			}
		},
		AppDetails: map[string]any{
			"description": "Flags, redacts, or rejects content containing configured words.",
		},
		Logger:   logger,
		Observer: observer,
	})
}

type watchword struct {
	defaults config.WatchwordConfig
}

// scan reports the flag and block words found in the given texts. Matching
// is case-insensitive on substrings.
func scan(texts []string, p *Parameters) (flagged, blocked []string) {
	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}

	contains := func(word string) bool {
		w := strings.ToLower(word)
		for _, t := range lowered {
			if strings.Contains(t, w) {
				return true
			}
		}
		return false
	}

	for _, w := range p.FlagWords {
		if contains(w) {
			flagged = append(flagged, strings.ToLower(w))
		}
	}
	for _, w := range p.BlockWords {
		if contains(w) {
			blocked = append(blocked, strings.ToLower(w))
		}
	}
	return flagged, blocked
}

func redact(text string, words []string, replacement string) string {
	for _, w := range words {
		lower := strings.ToLower(text)
		needle := strings.ToLower(w)
		for {
			idx := strings.Index(lower, needle)
			if idx < 0 {
				break
			}
			text = text[:idx] + replacement + text[idx+len(needle):]
			lower = strings.ToLower(text)
		}
	}
	return text
}

func (w *watchword) outcome(flagged, blocked []string, p *Parameters) (*result.Result, *result.Reject, error) {
	if len(blocked) > 0 && p.Reject {
		return nil, &result.Reject{
			Code:   result.RejectPolicyViolation,
			Detail: fmt.Sprintf("content contains blocked words: %s", strings.Join(blocked, ", ")),
		}, nil
	}

	res := &result.Result{}
	matched := append(append([]string{}, flagged...), blocked...)
	if len(matched) > 0 {
		t, err := tags.New(nil)
		if err != nil {
			return nil, nil, err
		}
		if err := t.Add(tagKey, matched...); err != nil {
			return nil, nil, err
		}
		res.Tags = t
		res.ProcessorResult = content.Metadata{"matches": matched}
	}
	return res, nil, nil
}

func (w *watchword) processInput(
	_ context.Context,
	prompt *processor.Prompt,
	_ content.Metadata,
	parameters params.Parameters,
	_ *http.Request,
) (result.Outcome, error) {
	p := parameters.(*Parameters)

	texts := make([]string, 0, len(prompt.Messages.Messages))
	for _, m := range prompt.Messages.Messages {
		texts = append(texts, m.Content)
	}

	flagged, blocked := scan(texts, p)
	res, rej, err := w.outcome(flagged, blocked, p)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return rej, nil
	}

	if len(blocked) > 0 && p.Modify {
		modified := *prompt.Messages
		modified.Messages = make([]content.Message, len(prompt.Messages.Messages))
		copy(modified.Messages, prompt.Messages.Messages)
		for i := range modified.Messages {
			modified.Messages[i].SetContent(redact(modified.Messages[i].Content, blocked, p.Replacement))
		}
		res.ModifiedPrompt = &modified
	}
	return res, nil
}

func (w *watchword) processResponse(
	_ context.Context,
	_ *processor.Prompt,
	response *processor.Response,
	_ content.Metadata,
	parameters params.Parameters,
	_ *http.Request,
) (result.Outcome, error) {
	p := parameters.(*Parameters)

	texts := make([]string, 0, len(response.Choices.Choices))
	for _, c := range response.Choices.Choices {
		texts = append(texts, c.Message.Content)
	}

	flagged, blocked := scan(texts, p)
	res, rej, err := w.outcome(flagged, blocked, p)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return rej, nil
	}

	if len(blocked) > 0 && p.Modify {
		modified := *response.Choices
		modified.Choices = make([]content.Choice, len(response.Choices.Choices))
		copy(modified.Choices, response.Choices.Choices)
		for i := range modified.Choices {
			modified.Choices[i].Message.SetContent(redact(modified.Choices[i].Message.Content, blocked, p.Replacement))
		}
		res.ModifiedResponse = &modified
	}
	return res, nil
}

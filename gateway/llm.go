package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jsonx "github.com/richinex/calcflow/internal/json"
	"github.com/richinex/calcflow/llm"
	"github.com/richinex/calcflow/model"
)

// ErrMalformedResponse is returned when the service reply does not satisfy
// the payload contract.
var ErrMalformedResponse = errors.New("malformed response")

// LLM is a Gateway backed by an LLM provider with structured output.
type LLM struct {
	provider llm.Provider
	logger   *slog.Logger
}

// Option configures an LLM gateway.
type Option func(*LLM)

// WithLogger sets the logger used for call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *LLM) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewLLM creates a gateway that sends prompts to provider.
func NewLLM(provider llm.Provider, opts ...Option) *LLM {
	g := &LLM{
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PartialDerivative computes a first-order partial derivative.
func (g *LLM) PartialDerivative(ctx context.Context, req model.PartialRequest) (model.Result, error) {
	return g.derive(ctx, req.Kind(), partialPrompt(req))
}

// HigherPartialDerivative computes a second-order partial derivative.
func (g *LLM) HigherPartialDerivative(ctx context.Context, req model.HigherPartialRequest) (model.Result, error) {
	return g.derive(ctx, req.Kind(), higherPartialPrompt(req))
}

// DirectionalDerivative computes a directional derivative.
func (g *LLM) DirectionalDerivative(ctx context.Context, req model.DirectionalRequest) (model.Result, error) {
	return g.derive(ctx, req.Kind(), directionalPrompt(req))
}

// EvaluatePractice grades a practice answer.
func (g *LLM) EvaluatePractice(ctx context.Context, req model.PracticeRequest) (model.PracticeFeedback, error) {
	content, err := g.complete(ctx, req.Kind(), practiceSystemPrompt, practicePrompt(req), feedbackFormat)
	if err != nil {
		return model.PracticeFeedback{}, err
	}
	feedback, err := decodeFeedback(content)
	if err != nil {
		return model.PracticeFeedback{}, wrap(req.Kind(), err)
	}
	return feedback, nil
}

func (g *LLM) derive(ctx context.Context, kind model.Kind, prompt string) (model.Result, error) {
	content, err := g.complete(ctx, kind, derivativeSystemPrompt, prompt, resultFormat)
	if err != nil {
		return model.Result{}, err
	}
	result, err := decodeResult(content)
	if err != nil {
		return model.Result{}, wrap(kind, err)
	}
	return result, nil
}

func (g *LLM) complete(ctx context.Context, kind model.Kind, system, prompt string, format *llm.ResponseFormat) (string, error) {
	messages := []llm.ChatMessage{
		llm.SystemMessage(system),
		llm.UserMessage(prompt),
	}

	start := time.Now()
	resp, err := g.provider.ChatWithFormat(ctx, messages, format)
	elapsed := time.Since(start)
	if err != nil {
		g.logger.Warn("gateway call failed",
			"kind", kind,
			"provider", g.provider.Name(),
			"elapsed", elapsed,
			"error", err)
		return "", wrap(kind, err)
	}

	attrs := []any{
		"kind", kind,
		"provider", g.provider.Name(),
		"model", g.provider.Model(),
		"elapsed", elapsed,
	}
	if resp.Usage != nil {
		attrs = append(attrs, "total_tokens", resp.Usage.TotalTokens)
	}
	g.logger.Debug("gateway call completed", attrs...)
	return resp.Content, nil
}

// feedbackWire distinguishes a missing isCorrect from false.
type feedbackWire struct {
	IsCorrect    *bool    `json:"isCorrect"`
	Feedback     string   `json:"feedback"`
	FullSolution string   `json:"fullSolution"`
	KeyPoints    []string `json:"keyPoints"`
}

func decodeResult(content string) (model.Result, error) {
	result, err := jsonx.Decode[model.Result](content)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch {
	case blank(result.Result):
		return model.Result{}, missingField("result")
	case blank(result.Explanation):
		return model.Result{}, missingField("explanation")
	case blank(result.FullSolution):
		return model.Result{}, missingField("fullSolution")
	case len(result.KeyPoints) == 0:
		return model.Result{}, missingField("keyPoints")
	}
	return result, nil
}

func decodeFeedback(content string) (model.PracticeFeedback, error) {
	wire, err := jsonx.Decode[feedbackWire](content)
	if err != nil {
		return model.PracticeFeedback{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch {
	case wire.IsCorrect == nil:
		return model.PracticeFeedback{}, missingField("isCorrect")
	case blank(wire.Feedback):
		return model.PracticeFeedback{}, missingField("feedback")
	case blank(wire.FullSolution):
		return model.PracticeFeedback{}, missingField("fullSolution")
	case len(wire.KeyPoints) == 0:
		return model.PracticeFeedback{}, missingField("keyPoints")
	}
	return model.PracticeFeedback{
		IsCorrect:    *wire.IsCorrect,
		Feedback:     wire.Feedback,
		FullSolution: wire.FullSolution,
		KeyPoints:    wire.KeyPoints,
	}, nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedResponse, name)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Verify LLM implements Gateway
var _ Gateway = (*LLM)(nil)

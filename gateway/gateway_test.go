package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/richinex/calcflow/llm"
	"github.com/richinex/calcflow/model"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]llm.ChatMessage
	formats  []*llm.ResponseFormat
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-1" }

func (p *stubProvider) ChatWithFormat(_ context.Context, messages []llm.ChatMessage, format *llm.ResponseFormat) (llm.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, messages)
	p.formats = append(p.formats, format)
	if p.err != nil {
		return llm.LLMResponse{}, p.err
	}
	return llm.LLMResponse{Content: p.reply}, nil
}

func (p *stubProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.messages[len(p.messages)-1]
	return msgs[len(msgs)-1].Content
}

const validResult = `{"result":"f_x = 17","explanation":"slope along x","fullSolution":"step 1\n\nstep 2","keyPoints":["power rule"]}`

func TestPartialDerivativeNumericPrompt(t *testing.T) {
	p := &stubProvider{reply: validResult}
	g := NewLLM(p)

	res, err := g.PartialDerivative(context.Background(), model.PartialRequest{
		Function: "x^3*y^2+5*x",
		Variable: model.VarX,
		Point:    model.Point{X: "1", Y: "2"},
		VarCount: model.TwoVars,
	})
	require.NoError(t, err)
	require.Equal(t, "f_x = 17", res.Result)
	require.Equal(t, []string{"power rule"}, res.KeyPoints)

	prompt := p.lastPrompt()
	require.Contains(t, prompt, "f(x, y) = x^3*y^2+5*x with respect to x")
	require.Contains(t, prompt, "evaluated at the point (x=1, y=2)")
	require.Contains(t, prompt, "STRICT RULES:")
	require.Equal(t, llm.ResponseFormatJSONSchema, p.formats[0].Type)
	require.Equal(t, "derivative_result", p.formats[0].JSONSchema.Name)
}

func TestPartialDerivativeSymbolicAndMixedPrompt(t *testing.T) {
	p := &stubProvider{reply: validResult}
	g := NewLLM(p)
	ctx := context.Background()

	_, err := g.PartialDerivative(ctx, model.PartialRequest{Function: "x*y*z", Variable: model.VarZ, VarCount: model.ThreeVars})
	require.NoError(t, err)
	require.Contains(t, p.lastPrompt(), "as a general symbolic expression f_z(x, y, z)")

	_, err = g.PartialDerivative(ctx, model.PartialRequest{Function: "x*y", Variable: model.VarY, Point: model.Point{X: "1"}, VarCount: model.TwoVars})
	require.NoError(t, err)
	require.Contains(t, p.lastPrompt(), "(x=1, y=?)")
}

func TestHigherPartialPrompt(t *testing.T) {
	p := &stubProvider{reply: validResult}
	g := NewLLM(p)

	_, err := g.HigherPartialDerivative(context.Background(), model.HigherPartialRequest{
		Function: "x^2*y",
		First:    model.VarX,
		Second:   model.VarY,
		VarCount: model.TwoVars,
	})
	require.NoError(t, err)
	prompt := p.lastPrompt()
	require.Contains(t, prompt, "∂²f / ∂y∂x")
	require.Contains(t, prompt, "f_xy(x, y)")
}

func TestDirectionalPromptModes(t *testing.T) {
	p := &stubProvider{reply: validResult}
	g := NewLLM(p)
	ctx := context.Background()
	base := model.DirectionalRequest{Function: "x^2-3*x*y", Point: model.Point{X: "1", Y: "2"}, VarCount: model.TwoVars}

	tests := []struct {
		name      string
		direction model.Direction
		want      string
	}{
		{"vector", model.VectorDirection{X: "3", Y: "4"}, "at point (1, 2) in the direction of the vector v = <3, 4>"},
		{"angle", model.AngleDirection{Radians: "0.5"}, "angle θ = 0.5 radians"},
		{"two points", model.TwoPointsDirection{Target: model.Point{X: "2", Y: "3"}}, "from point P(1, 2) to point Q(2, 3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.Direction = tt.direction
			_, err := g.DirectionalDerivative(ctx, req)
			require.NoError(t, err)
			require.Contains(t, p.lastPrompt(), tt.want)
			require.Contains(t, p.lastPrompt(), "D_u f = ∇f · u")
		})
	}
}

func TestEvaluatePractice(t *testing.T) {
	p := &stubProvider{reply: "```json\n" + `{"isCorrect":false,"feedback":"close","fullSolution":"a\n\nb","keyPoints":["x"]}` + "\n```"}
	g := NewLLM(p)

	fb, err := g.EvaluatePractice(context.Background(), model.PracticeRequest{Question: "Find f_x", Answer: "15"})
	require.NoError(t, err)
	require.False(t, fb.IsCorrect)
	require.Equal(t, "close", fb.Feedback)
	require.Contains(t, p.lastPrompt(), "Problem: Find f_x\nUser's Answer: 15")
	require.Equal(t, "practice_feedback", p.formats[0].JSONSchema.Name)
}

func TestContractViolationsAreErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "I cannot help with that."},
		{"missing result", `{"explanation":"e","fullSolution":"s","keyPoints":["k"]}`},
		{"blank solution", `{"result":"r","explanation":"e","fullSolution":"  ","keyPoints":["k"]}`},
		{"empty key points", `{"result":"r","explanation":"e","fullSolution":"s","keyPoints":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLLM(&stubProvider{reply: tt.reply})
			_, err := g.PartialDerivative(context.Background(), model.PartialRequest{Function: "x", Variable: model.VarX, VarCount: model.TwoVars})
			require.Error(t, err)

			var gerr *Error
			require.True(t, errors.As(err, &gerr))
			require.Equal(t, model.KindPartial, gerr.Kind)
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestPracticeRequiresIsCorrect(t *testing.T) {
	g := NewLLM(&stubProvider{reply: `{"feedback":"f","fullSolution":"s","keyPoints":["k"]}`})
	_, err := g.EvaluatePractice(context.Background(), model.PracticeRequest{Question: "q", Answer: "a"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestProviderErrorIsWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	g := NewLLM(&stubProvider{err: cause})

	_, err := g.DirectionalDerivative(context.Background(), model.DirectionalRequest{
		Function:  "x",
		Point:     model.Point{X: "1", Y: "1"},
		Direction: model.VectorDirection{X: "1", Y: "0"},
		VarCount:  model.TwoVars,
	})
	require.ErrorIs(t, err, cause)
	require.True(t, strings.HasPrefix(err.Error(), "directional gateway call failed"))
}

func TestResultSchemaRequiresEveryField(t *testing.T) {
	var schema struct {
		Type                 string                     `json:"type"`
		Required             []string                   `json:"required"`
		AdditionalProperties bool                       `json:"additionalProperties"`
		Properties           map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(resultFormat.JSONSchema.Schema, &schema))
	require.Equal(t, "object", schema.Type)
	require.ElementsMatch(t, []string{"result", "explanation", "fullSolution", "keyPoints"}, schema.Required)
	require.False(t, schema.AdditionalProperties)

	var keyPoints struct {
		Type     string `json:"type"`
		MinItems int    `json:"minItems"`
	}
	require.NoError(t, json.Unmarshal(schema.Properties["keyPoints"], &keyPoints))
	require.Equal(t, "array", keyPoints.Type)
	require.Equal(t, 1, keyPoints.MinItems)

	require.NotContains(t, string(resultFormat.JSONSchema.Schema), "$schema")
}

type countingGateway struct {
	partial, higher, directional, practice int
}

func (c *countingGateway) PartialDerivative(context.Context, model.PartialRequest) (model.Result, error) {
	c.partial++
	return model.Result{Result: "partial", KeyPoints: []string{"k"}}, nil
}

func (c *countingGateway) HigherPartialDerivative(context.Context, model.HigherPartialRequest) (model.Result, error) {
	c.higher++
	return model.Result{Result: "higher"}, nil
}

func (c *countingGateway) DirectionalDerivative(context.Context, model.DirectionalRequest) (model.Result, error) {
	c.directional++
	return model.Result{}, errors.New("boom")
}

func (c *countingGateway) EvaluatePractice(context.Context, model.PracticeRequest) (model.PracticeFeedback, error) {
	c.practice++
	return model.PracticeFeedback{IsCorrect: true}, nil
}

func TestComputeDispatchesByKind(t *testing.T) {
	gw := &countingGateway{}
	ctx := context.Background()

	res, err := Compute(ctx, gw, model.PartialRequest{})
	require.NoError(t, err)
	require.Equal(t, "partial", res.Result)

	res, err = Compute(ctx, gw, model.HigherPartialRequest{})
	require.NoError(t, err)
	require.Equal(t, "higher", res.Result)

	_, err = Compute(ctx, gw, model.DirectionalRequest{})
	require.Error(t, err)
	require.Equal(t, 1, gw.partial)
	require.Equal(t, 1, gw.higher)
	require.Equal(t, 1, gw.directional)
}

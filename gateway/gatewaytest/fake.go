// Package gatewaytest provides a scriptable in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"errors"
	"sync"

	"github.com/richinex/calcflow/gateway"
	"github.com/richinex/calcflow/model"
)

// ErrUnavailable is the error returned by Fail when no error is given.
var ErrUnavailable = errors.New("service unavailable")

// Call is one recorded gateway invocation.
type Call struct {
	// Request is a model.Request for derivative calls, or a
	// model.PracticeRequest for practice evaluations.
	Request any

	release chan outcome
}

type outcome struct {
	result   model.Result
	feedback model.PracticeFeedback
	err      error
}

// Fake answers every call with a fixed payload. After Hold, calls block
// until released individually, which lets tests control completion order.
type Fake struct {
	mu       sync.Mutex
	result   model.Result
	feedback model.PracticeFeedback
	err      error
	hold     bool
	calls    []*Call
	arrived  chan *Call
}

// New creates a fake that succeeds with SampleResult and SampleFeedback.
func New() *Fake {
	return &Fake{
		result:   SampleResult(),
		feedback: SampleFeedback(true),
		arrived:  make(chan *Call, 256),
	}
}

// SampleResult returns a well-formed derivative payload.
func SampleResult() model.Result {
	return model.Result{
		Result:       "f_x = 3x^2 y^2 + 5 = 17",
		Explanation:  "The slope of f along x at (1, 2) is 17.",
		FullSolution: "Hold y constant.\n\nf_x = 3x^2 y^2 + 5\n\nf_x(1, 2) = 12 + 5 = 17",
		KeyPoints:    []string{"Power rule", "Treat y as a constant"},
	}
}

// SampleFeedback returns a well-formed practice payload.
func SampleFeedback(correct bool) model.PracticeFeedback {
	fb := model.PracticeFeedback{
		IsCorrect:    correct,
		Feedback:     "Nice work.",
		FullSolution: "f_x = 3x^2 y^2 + 5\n\nf_x(1, 2) = 17",
		KeyPoints:    []string{"Power rule"},
	}
	if !correct {
		fb.Feedback = "Not quite. Check the power rule."
	}
	return fb
}

// SetResult changes the payload returned by derivative calls.
func (f *Fake) SetResult(r model.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = r
}

// SetFeedback changes the payload returned by practice calls.
func (f *Fake) SetFeedback(fb model.PracticeFeedback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = fb
}

// Fail makes subsequent calls return err (ErrUnavailable if nil).
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = ErrUnavailable
	}
	f.err = err
}

// Succeed clears a previous Fail.
func (f *Fake) Succeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
}

// Hold makes subsequent calls block until Release or ReleaseWith.
func (f *Fake) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = true
}

// Next blocks until the next call arrives and returns it.
func (f *Fake) Next(ctx context.Context) (*Call, error) {
	select {
	case c := <-f.arrived:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release completes a held call with the configured payload and error.
func (f *Fake) Release(c *Call) {
	f.mu.Lock()
	o := outcome{result: f.result, feedback: f.feedback, err: f.err}
	f.mu.Unlock()
	c.release <- o
}

// ReleaseWith completes a held call with the given payloads.
func (f *Fake) ReleaseWith(c *Call, result model.Result, feedback model.PracticeFeedback, err error) {
	c.release <- outcome{result: result, feedback: feedback, err: err}
}

// Calls returns the number of calls received so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Requests returns the requests received so far, in order.
func (f *Fake) Requests() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Request
	}
	return out
}

func (f *Fake) do(ctx context.Context, req any) outcome {
	f.mu.Lock()
	c := &Call{Request: req, release: make(chan outcome, 1)}
	f.calls = append(f.calls, c)
	hold := f.hold
	o := outcome{result: f.result.Clone(), feedback: f.feedback.Clone(), err: f.err}
	f.mu.Unlock()

	select {
	case f.arrived <- c:
	default:
	}
	if o.err != nil {
		o.result, o.feedback = model.Result{}, model.PracticeFeedback{}
	}
	if !hold {
		return o
	}
	select {
	case o = <-c.release:
		return o
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	}
}

func wrapErr(kind model.Kind, err error) error {
	if err == nil {
		return nil
	}
	return &gateway.Error{Kind: kind, Err: err}
}

// PartialDerivative implements gateway.Gateway.
func (f *Fake) PartialDerivative(ctx context.Context, req model.PartialRequest) (model.Result, error) {
	o := f.do(ctx, req)
	return o.result, wrapErr(req.Kind(), o.err)
}

// HigherPartialDerivative implements gateway.Gateway.
func (f *Fake) HigherPartialDerivative(ctx context.Context, req model.HigherPartialRequest) (model.Result, error) {
	o := f.do(ctx, req)
	return o.result, wrapErr(req.Kind(), o.err)
}

// DirectionalDerivative implements gateway.Gateway.
func (f *Fake) DirectionalDerivative(ctx context.Context, req model.DirectionalRequest) (model.Result, error) {
	o := f.do(ctx, req)
	return o.result, wrapErr(req.Kind(), o.err)
}

// EvaluatePractice implements gateway.Gateway.
func (f *Fake) EvaluatePractice(ctx context.Context, req model.PracticeRequest) (model.PracticeFeedback, error) {
	o := f.do(ctx, req)
	return o.feedback, wrapErr(req.Kind(), o.err)
}

// Verify Fake implements gateway.Gateway
var _ gateway.Gateway = (*Fake)(nil)

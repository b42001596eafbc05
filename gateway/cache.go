package gateway

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/richinex/calcflow/model"
)

// Cached memoizes successful gateway responses by request. Requests are
// compared field by field as entered, so "1" and "1.0" are distinct keys.
// Failures are never cached.
type Cached struct {
	next     Gateway
	results  *lru.Cache[model.Request, model.Result]
	feedback *lru.Cache[model.PracticeRequest, model.PracticeFeedback]
}

// NewCached wraps next with an LRU cache holding up to size entries per
// payload type. A non-positive size disables caching and returns next.
func NewCached(next Gateway, size int) (Gateway, error) {
	if size <= 0 {
		return next, nil
	}
	results, err := lru.New[model.Request, model.Result](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	feedback, err := lru.New[model.PracticeRequest, model.PracticeFeedback](size)
	if err != nil {
		return nil, fmt.Errorf("create feedback cache: %w", err)
	}
	return &Cached{next: next, results: results, feedback: feedback}, nil
}

// PartialDerivative implements Gateway.
func (c *Cached) PartialDerivative(ctx context.Context, req model.PartialRequest) (model.Result, error) {
	return c.result(req, func() (model.Result, error) {
		return c.next.PartialDerivative(ctx, req)
	})
}

// HigherPartialDerivative implements Gateway.
func (c *Cached) HigherPartialDerivative(ctx context.Context, req model.HigherPartialRequest) (model.Result, error) {
	return c.result(req, func() (model.Result, error) {
		return c.next.HigherPartialDerivative(ctx, req)
	})
}

// DirectionalDerivative implements Gateway.
func (c *Cached) DirectionalDerivative(ctx context.Context, req model.DirectionalRequest) (model.Result, error) {
	return c.result(req, func() (model.Result, error) {
		return c.next.DirectionalDerivative(ctx, req)
	})
}

// EvaluatePractice implements Gateway.
func (c *Cached) EvaluatePractice(ctx context.Context, req model.PracticeRequest) (model.PracticeFeedback, error) {
	if fb, ok := c.feedback.Get(req); ok {
		return fb.Clone(), nil
	}
	fb, err := c.next.EvaluatePractice(ctx, req)
	if err != nil {
		return model.PracticeFeedback{}, err
	}
	c.feedback.Add(req, fb.Clone())
	return fb, nil
}

// Len returns the number of cached derivative results.
func (c *Cached) Len() int {
	return c.results.Len()
}

// Purge drops every cached entry.
func (c *Cached) Purge() {
	c.results.Purge()
	c.feedback.Purge()
}

func (c *Cached) result(req model.Request, call func() (model.Result, error)) (model.Result, error) {
	if r, ok := c.results.Get(req); ok {
		return r.Clone(), nil
	}
	r, err := call()
	if err != nil {
		return model.Result{}, err
	}
	c.results.Add(req, r.Clone())
	return r, nil
}

// Verify Cached implements Gateway
var _ Gateway = (*Cached)(nil)

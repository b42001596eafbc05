// Package gateway defines the computation gateway boundary.
//
// Information Hiding:
// - The external symbolic-computation service is a black box behind Gateway
// - Failure causes (network, parse, service) are not distinguished by callers
// - Kind-specific dispatch is centralized in Compute
package gateway

import (
	"context"
	"fmt"

	"github.com/richinex/calcflow/model"
)

// Gateway performs the mathematics and explanation generation.
// Every call may be slow and may fail.
type Gateway interface {
	PartialDerivative(ctx context.Context, req model.PartialRequest) (model.Result, error)
	HigherPartialDerivative(ctx context.Context, req model.HigherPartialRequest) (model.Result, error)
	DirectionalDerivative(ctx context.Context, req model.DirectionalRequest) (model.Result, error)
	EvaluatePractice(ctx context.Context, req model.PracticeRequest) (model.PracticeFeedback, error)
}

// Error wraps any failure of a gateway call.
type Error struct {
	Kind model.Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s gateway call failed: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(kind model.Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Compute dispatches a derivative request to the matching gateway operation.
func Compute(ctx context.Context, gw Gateway, req model.Request) (model.Result, error) {
	switch r := req.(type) {
	case model.PartialRequest:
		return gw.PartialDerivative(ctx, r)
	case model.HigherPartialRequest:
		return gw.HigherPartialDerivative(ctx, r)
	case model.DirectionalRequest:
		return gw.DirectionalDerivative(ctx, r)
	default:
		return model.Result{}, fmt.Errorf("unsupported request type %T", req)
	}
}

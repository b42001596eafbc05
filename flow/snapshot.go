package flow

import (
	"github.com/richinex/calcflow/model"
	"github.com/richinex/calcflow/request"
)

// Snapshot is a deep copy of everything the presentation layer may render.
type Snapshot struct {
	View  View
	Topic model.Topic

	Calculation RequestState[model.Result]
	// Request is the request behind Calculation, nil when idle.
	Request model.Request
	Higher  HigherSelection
	// CanOpenHigher reports whether OpenHigher is currently available.
	CanOpenHigher bool

	Partial     request.PartialForm
	Directional request.DirectionalForm

	Problem  *model.PracticeProblem
	Answer   string
	Practice RequestState[model.PracticeFeedback]
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		View:          c.view,
		Topic:         c.topic,
		Calculation:   c.calc.copyWith(model.Result.Clone),
		Request:       c.last,
		Higher:        c.higher,
		CanOpenHigher: c.view == ViewResult && c.calc.Phase == PhaseSuccess && c.origin != nil,
		Partial:       c.sessions.Partial(),
		Directional:   c.sessions.Directional(),
		Answer:        c.answer,
		Practice:      c.practice.copyWith(model.PracticeFeedback.Clone),
	}
	if c.problem != nil {
		p := *c.problem
		s.Problem = &p
	}
	return s
}

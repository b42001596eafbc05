// Package session provides the per-topic form field store.
//
// Information Hiding:
// - Field storage per topic (partial, directional) behind read/write accessors
// - Thread-safe access via RWMutex
// - No validation: fields are checked by the request package at submission time
package session

import (
	"sync"

	"github.com/richinex/calcflow/model"
	"github.com/richinex/calcflow/request"
)

// Axis names a coordinate of a point or a direction component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// DefaultPartial returns the fields of a freshly opened partial form.
func DefaultPartial() request.PartialForm {
	return request.PartialForm{VarCount: model.TwoVars}
}

// DefaultDirectional returns the fields of a freshly opened directional form.
func DefaultDirectional() request.DirectionalForm {
	return request.DirectionalForm{VarCount: model.TwoVars, Mode: model.ModeVector}
}

// Store holds editable form fields so they survive navigation within a
// topic. Clear discards them when the user leaves to topic selection.
type Store struct {
	mu          sync.RWMutex
	partial     request.PartialForm
	directional request.DirectionalForm
}

// NewStore creates a store with default fields.
func NewStore() *Store {
	return &Store{
		partial:     DefaultPartial(),
		directional: DefaultDirectional(),
	}
}

// Clear resets both topics to their default fields.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.partial = DefaultPartial()
	s.directional = DefaultDirectional()
}

// Partial returns a copy of the partial form fields.
func (s *Store) Partial() request.PartialForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partial
}

// Directional returns a copy of the directional form fields.
func (s *Store) Directional() request.DirectionalForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directional
}

// SetPartialFunction sets the function text of the partial form.
func (s *Store) SetPartialFunction(function string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial.Function = function
}

// SetPartialVarCount sets the variable count of the partial form.
func (s *Store) SetPartialVarCount(n model.VarCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial.VarCount = n
}

// SetPartialPoint replaces the evaluation point of the partial form.
func (s *Store) SetPartialPoint(p model.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial.Point = p
}

// SetPartialCoordinate sets one coordinate of the partial evaluation point.
func (s *Store) SetPartialCoordinate(axis Axis, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setCoordinate(&s.partial.Point, axis, value)
}

// SetDirectionalFunction sets the function text of the directional form.
func (s *Store) SetDirectionalFunction(function string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directional.Function = function
}

// SetDirectionalVarCount sets the variable count of the directional form.
// Switching to three variables while the angle mode is selected falls back
// to the vector mode, since an angle only describes a planar direction.
func (s *Store) SetDirectionalVarCount(n model.VarCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directional.VarCount = n
	if n == model.ThreeVars && s.directional.Mode == model.ModeAngle {
		s.directional.Mode = model.ModeVector
	}
}

// SetDirectionalPoint replaces the evaluation point of the directional form.
func (s *Store) SetDirectionalPoint(p model.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directional.Point = p
}

// SetDirectionalCoordinate sets one coordinate of the directional evaluation point.
func (s *Store) SetDirectionalCoordinate(axis Axis, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setCoordinate(&s.directional.Point, axis, value)
}

// SetDirectionMode selects how the direction is specified.
func (s *Store) SetDirectionMode(mode model.DirectionMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directional.Mode = mode
}

// SetDirectionComponent sets one raw direction field (vector component,
// angle in AxisX, or target coordinate).
func (s *Store) SetDirectionComponent(axis Axis, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch axis {
	case AxisX:
		s.directional.A = value
	case AxisY:
		s.directional.B = value
	case AxisZ:
		s.directional.C = value
	}
}

// SetDirectionComponents sets all raw direction fields at once.
func (s *Store) SetDirectionComponents(a, b, c string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directional.A, s.directional.B, s.directional.C = a, b, c
}

func setCoordinate(p *model.Point, axis Axis, value string) {
	switch axis {
	case AxisX:
		p.X = value
	case AxisY:
		p.Y = value
	case AxisZ:
		p.Z = value
	}
}

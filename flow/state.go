package flow

// RequestState tracks one asynchronous gateway request. Payload is non-nil
// iff Phase is PhaseSuccess, and ErrorMessage is non-empty iff Phase is
// PhaseError.
//
// Every begin and reset advances the generation. A completion carries the
// generation it was started with and is dropped when that no longer
// matches, so a superseded call can never overwrite newer state.
type RequestState[T any] struct {
	Phase            Phase
	Payload          *T
	ErrorMessage     string
	SolutionRevealed bool

	generation uint64
	pending    any
}

// begin enters Loading for the request identified by key and returns the
// generation the completion must present.
func (s *RequestState[T]) begin(key any) uint64 {
	s.generation++
	s.Phase = PhaseLoading
	s.Payload = nil
	s.ErrorMessage = ""
	s.SolutionRevealed = false
	s.pending = key
	return s.generation
}

// inFlight reports whether the request identified by key is loading.
func (s *RequestState[T]) inFlight(key any) bool {
	return s.Phase == PhaseLoading && s.pending == key
}

// current reports whether a completion for gen may still be applied.
func (s *RequestState[T]) current(gen uint64) bool {
	return s.Phase == PhaseLoading && s.generation == gen
}

func (s *RequestState[T]) succeed(gen uint64, payload T) bool {
	if !s.current(gen) {
		return false
	}
	s.Phase = PhaseSuccess
	s.Payload = &payload
	s.ErrorMessage = ""
	s.SolutionRevealed = false
	s.pending = nil
	return true
}

func (s *RequestState[T]) fail(gen uint64, message string) bool {
	if !s.current(gen) {
		return false
	}
	s.Phase = PhaseError
	s.Payload = nil
	s.ErrorMessage = message
	s.pending = nil
	return true
}

// reset returns to Idle and invalidates any outstanding call.
func (s *RequestState[T]) reset() {
	gen := s.generation + 1
	*s = RequestState[T]{generation: gen}
}

// reveal marks the solution as shown. It is only available on success.
func (s *RequestState[T]) reveal() bool {
	if s.Phase != PhaseSuccess {
		return false
	}
	s.SolutionRevealed = true
	return true
}

// Loading reports whether a call is outstanding.
func (s RequestState[T]) Loading() bool {
	return s.Phase == PhaseLoading
}

// copyWith returns a copy whose payload is duplicated by clone.
func (s RequestState[T]) copyWith(clone func(T) T) RequestState[T] {
	if s.Payload != nil {
		p := clone(*s.Payload)
		s.Payload = &p
	}
	s.pending = nil
	return s
}

// Package flow implements the calculation workflow controller.
//
// Information Hiding:
// - View transitions and the resets they imply live in one place (NavigateTo)
// - Asynchronous gateway completions are applied under the controller lock
//   and dropped when their generation is stale
// - Presentation code only sees copies (Snapshot) and acts through intents
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/richinex/calcflow/catalog"
	"github.com/richinex/calcflow/gateway"
	"github.com/richinex/calcflow/model"
	"github.com/richinex/calcflow/request"
	"github.com/richinex/calcflow/session"
	"github.com/richinex/calcflow/storage"
)

var (
	// ErrInvalidTransition is returned for a navigation the table does not allow.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrRequestInFlight is returned when the identical request is still loading.
	ErrRequestInFlight = errors.New("request already in flight")
	// ErrNotAvailable is returned for an intent that the current state does not offer.
	ErrNotAvailable = errors.New("action not available")
	// ErrUnknownProblem is returned when selecting a problem that is not in the catalog.
	ErrUnknownProblem = errors.New("unknown practice problem")
)

// User-facing failure messages. The technical cause is only logged.
const (
	MessagePartialFailed     = "Failed to process the mathematical expression. Please check your syntax."
	MessageHigherFailed      = "Failed to calculate higher-order derivative."
	MessageDirectionalFailed = "Calculation failed. Verify your inputs and mathematical notation."
	MessagePracticeFailed    = "Error evaluating answer."
)

var failureMessages = map[model.Kind]string{
	model.KindPartial:       MessagePartialFailed,
	model.KindHigherPartial: MessageHigherFailed,
	model.KindDirectional:   MessageDirectionalFailed,
	model.KindPractice:      MessagePracticeFailed,
}

// HigherStage is the progress of the higher-order derivative selection.
type HigherStage int

const (
	HigherClosed HigherStage = iota
	HigherChoosePoint
	HigherChooseVariable
)

// String returns the stage name.
func (s HigherStage) String() string {
	switch s {
	case HigherClosed:
		return "closed"
	case HigherChoosePoint:
		return "choose-point"
	case HigherChooseVariable:
		return "choose-variable"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// HigherSelection is the higher-order sub-flow state. UseSamePoint is only
// meaningful once Stage is HigherChooseVariable.
type HigherSelection struct {
	Stage        HigherStage
	UseSamePoint bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for transitions and gateway failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a function called with a fresh snapshot after
// every state change, including gateway completions. Calls are serialized
// but may come from any goroutine. fn may call intents; the snapshots they
// produce are delivered after fn returns.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithRecorder records every applied success in store.
func WithRecorder(store storage.HistoryStore) Option {
	return func(c *Controller) {
		c.recorder = store
	}
}

// Controller owns the view, the request states and the sub-flow state.
// It is safe for concurrent use.
type Controller struct {
	gw       gateway.Gateway
	catalog  *catalog.Catalog
	sessions *session.Store
	logger   *slog.Logger
	observer func(Snapshot)
	recorder storage.HistoryStore

	notifyMu   sync.Mutex
	pending    []Snapshot
	delivering bool
	wg         sync.WaitGroup

	mu       sync.Mutex
	view     View
	topic    model.Topic
	calc     RequestState[model.Result]
	last     model.Request
	origin   *model.PartialRequest
	higher   HigherSelection
	practice RequestState[model.PracticeFeedback]
	problem  *model.PracticeProblem
	answer   string
}

// New creates a controller in the start view. A nil catalog uses the
// built-in problems.
func New(gw gateway.Gateway, problems *catalog.Catalog, opts ...Option) *Controller {
	if problems == nil {
		problems = catalog.Default()
	}
	c := &Controller{
		gw:       gw,
		catalog:  problems,
		sessions: session.NewStore(),
		logger:   slog.New(slog.DiscardHandler),
		view:     ViewStart,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sessions returns the form field store. Field edits take effect on the
// next submission.
func (c *Controller) Sessions() *session.Store {
	return c.sessions
}

// Catalog returns the practice problem catalog.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Wait blocks until every outstanding gateway call has been applied or
// discarded.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// NavigateTo moves to view v. Entering a topic from the topic list, and
// returning to the topic list, clears every request and sub-flow state;
// returning to the topic list also clears the form fields.
func (c *Controller) NavigateTo(v View) error {
	c.mu.Lock()
	from := c.view
	if !canNavigate(from, v) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, v)
	}
	switch {
	case v == ViewTopics:
		c.resetLocked()
		c.sessions.Clear()
	case from == ViewTopics:
		c.resetLocked()
		c.topic = topicOf(v)
	case v == ViewSolution:
		if !c.calc.reveal() {
			c.mu.Unlock()
			return fmt.Errorf("%w: no solution to show", ErrNotAvailable)
		}
		c.higher = HigherSelection{}
	case v == ViewResult:
		if c.last == nil || c.calc.Phase == PhaseIdle {
			c.mu.Unlock()
			return fmt.Errorf("%w: no calculation to show", ErrNotAvailable)
		}
	case from == ViewResult && (v == ViewPartialForm || v == ViewDirectionalForm):
		if topicOf(v) != c.topic {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, v)
		}
		c.higher = HigherSelection{}
	case from == ViewPracticeDetail && v == ViewPracticeList:
		c.clearPracticeLocked()
		c.problem = nil
	}
	c.view = v
	c.mu.Unlock()

	c.logger.Debug("navigate", "from", from, "to", v)
	c.notify()
	return nil
}

// Reset starts over from the topic list, clearing all state.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.sessions.Clear()
	c.view = ViewTopics
	c.mu.Unlock()

	c.logger.Debug("reset")
	c.notify()
}

// SubmitPartial validates the partial form and requests ∂f/∂v. The view
// moves to the result immediately; the payload arrives asynchronously.
// ctx bounds the gateway call.
func (c *Controller) SubmitPartial(ctx context.Context, v model.Variable) error {
	req, err := request.Partial(c.sessions.Partial(), v)
	if err != nil {
		return err
	}
	return c.submitCalculation(ctx, ViewPartialForm, req, c.startChain)
}

// SubmitDirectional validates the directional form and requests D_u f.
func (c *Controller) SubmitDirectional(ctx context.Context) error {
	req, err := request.Directional(c.sessions.Directional())
	if err != nil {
		return err
	}
	return c.submitCalculation(ctx, ViewDirectionalForm, req, c.startChain)
}

// OpenHigher starts the higher-order sub-flow. It requires a successful
// first-order partial derivative on screen.
func (c *Controller) OpenHigher() error {
	c.mu.Lock()
	if c.view != ViewResult || c.calc.Phase != PhaseSuccess || c.origin == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: higher-order derivative", ErrNotAvailable)
	}
	c.higher = HigherSelection{Stage: HigherChoosePoint}
	c.mu.Unlock()

	c.notify()
	return nil
}

// ChooseHigherPoint records whether the original evaluation point is
// reused. With same false, the partial form point (edited through
// Sessions) is used instead.
func (c *Controller) ChooseHigherPoint(same bool) error {
	c.mu.Lock()
	if c.higher.Stage != HigherChoosePoint {
		c.mu.Unlock()
		return fmt.Errorf("%w: point choice", ErrNotAvailable)
	}
	c.higher = HigherSelection{Stage: HigherChooseVariable, UseSamePoint: same}
	c.mu.Unlock()

	c.notify()
	return nil
}

// SubmitHigher requests ∂²f/∂second∂first, where first is the variable of
// the originating request.
func (c *Controller) SubmitHigher(ctx context.Context, second model.Variable) error {
	c.mu.Lock()
	if c.higher.Stage != HigherChooseVariable || c.origin == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: second variable choice", ErrNotAvailable)
	}
	origin := *c.origin
	point := origin.Point
	if !c.higher.UseSamePoint {
		point = c.sessions.Partial().Point
	}
	c.mu.Unlock()

	req, err := request.HigherPartial(origin, point, second)
	if err != nil {
		return err
	}
	return c.submitCalculation(ctx, ViewResult, req, func() error {
		if c.higher.Stage != HigherChooseVariable {
			return fmt.Errorf("%w: second variable choice", ErrNotAvailable)
		}
		return nil
	})
}

// CancelHigher closes the higher-order sub-flow without touching the
// request state.
func (c *Controller) CancelHigher() {
	c.mu.Lock()
	changed := c.higher.Stage != HigherClosed
	c.higher = HigherSelection{}
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

// RevealSolution shows the full derivation of the current result. It is
// idempotent and never calls the gateway.
func (c *Controller) RevealSolution() error {
	c.mu.Lock()
	if !c.calc.reveal() {
		c.mu.Unlock()
		return fmt.Errorf("%w: no solution to show", ErrNotAvailable)
	}
	if c.view == ViewResult {
		c.view = ViewSolution
		c.higher = HigherSelection{}
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// SelectProblem opens a practice problem with a fresh practice state.
func (c *Controller) SelectProblem(id string) error {
	p, ok := c.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProblem, id)
	}

	c.mu.Lock()
	if c.view != ViewPracticeList && c.view != ViewPracticeDetail {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.view, ViewPracticeDetail)
	}
	c.clearPracticeLocked()
	c.problem = &p
	c.view = ViewPracticeDetail
	c.mu.Unlock()

	c.logger.Debug("problem selected", "id", id)
	c.notify()
	return nil
}

// SetPracticeAnswer stores the answer text for the open problem.
func (c *Controller) SetPracticeAnswer(answer string) error {
	c.mu.Lock()
	if c.problem == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no problem selected", ErrNotAvailable)
	}
	c.answer = answer
	c.mu.Unlock()

	c.notify()
	return nil
}

// SubmitPracticeAnswer sends the answer for evaluation.
func (c *Controller) SubmitPracticeAnswer(ctx context.Context) error {
	c.mu.Lock()
	if c.view != ViewPracticeDetail || c.problem == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no problem selected", ErrNotAvailable)
	}
	req, err := request.Practice(c.problem.Question, c.answer)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if c.practice.inFlight(req) {
		c.mu.Unlock()
		return ErrRequestInFlight
	}
	gen := c.practice.begin(req)
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("submit", "kind", req.Kind(), "generation", gen)
	c.notify()

	go func() {
		defer c.wg.Done()
		feedback, err := c.gw.EvaluatePractice(ctx, req)
		c.completePractice(ctx, gen, req, feedback, err)
	}()
	return nil
}

// RevealPracticeSolution shows the full derivation. It is only available
// after feedback has arrived.
func (c *Controller) RevealPracticeSolution() error {
	c.mu.Lock()
	if !c.practice.reveal() {
		c.mu.Unlock()
		return fmt.Errorf("%w: no feedback yet", ErrNotAvailable)
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// RetryPractice clears the feedback and the answer, keeping the problem.
func (c *Controller) RetryPractice() error {
	c.mu.Lock()
	if c.view != ViewPracticeDetail || c.problem == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no problem selected", ErrNotAvailable)
	}
	c.clearPracticeLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// startChain forgets the previous first-order request; a new one becomes
// the origin once it succeeds.
func (c *Controller) startChain() error {
	c.origin = nil
	return nil
}

// submitCalculation starts a derivative call from view from (ViewResult
// for the higher-order sub-flow). prepare runs under the lock before the
// state enters Loading and may veto the submission.
func (c *Controller) submitCalculation(ctx context.Context, from View, req model.Request, prepare func() error) error {
	c.mu.Lock()
	if c.view != from {
		c.mu.Unlock()
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, c.view)
	}
	if c.calc.inFlight(req) {
		c.mu.Unlock()
		return ErrRequestInFlight
	}
	if err := prepare(); err != nil {
		c.mu.Unlock()
		return err
	}
	gen := c.calc.begin(req)
	c.last = req
	c.higher = HigherSelection{}
	c.view = ViewResult
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("submit", "kind", req.Kind(), "generation", gen)
	c.notify()

	go func() {
		defer c.wg.Done()
		result, err := gateway.Compute(ctx, c.gw, req)
		c.completeCalculation(ctx, gen, req, result, err)
	}()
	return nil
}

func (c *Controller) completeCalculation(ctx context.Context, gen uint64, req model.Request, result model.Result, err error) {
	c.mu.Lock()
	var applied bool
	if err != nil {
		applied = c.calc.fail(gen, failureMessages[req.Kind()])
	} else {
		applied = c.calc.succeed(gen, result.Clone())
		if applied {
			if partial, ok := req.(model.PartialRequest); ok {
				c.origin = &partial
			}
		}
	}
	c.mu.Unlock()

	if !applied {
		c.logger.Debug("discarding stale response", "kind", req.Kind(), "generation", gen)
		return
	}
	if err != nil {
		c.logger.Warn("calculation failed", "kind", req.Kind(), "error", err)
	} else {
		c.record(ctx, req.Kind(), req.Summary(), req, result)
	}
	c.notify()
}

func (c *Controller) completePractice(ctx context.Context, gen uint64, req model.PracticeRequest, feedback model.PracticeFeedback, err error) {
	c.mu.Lock()
	var applied bool
	if err != nil {
		applied = c.practice.fail(gen, failureMessages[req.Kind()])
	} else {
		applied = c.practice.succeed(gen, feedback.Clone())
	}
	c.mu.Unlock()

	if !applied {
		c.logger.Debug("discarding stale response", "kind", req.Kind(), "generation", gen)
		return
	}
	if err != nil {
		c.logger.Warn("practice evaluation failed", "error", err)
	} else {
		c.record(ctx, req.Kind(), req.Question, req, feedback)
	}
	c.notify()
}

// record stores a success in the history. Failures are logged only.
func (c *Controller) record(ctx context.Context, kind model.Kind, summary string, req, payload any) {
	if c.recorder == nil {
		return
	}
	entry, err := storage.NewEntry(kind, summary, req, payload)
	if err == nil {
		err = c.recorder.Record(context.WithoutCancel(ctx), entry)
	}
	if err != nil {
		c.logger.Warn("failed to record history", "kind", kind, "error", err)
	}
}

func (c *Controller) resetLocked() {
	c.calc.reset()
	c.last = nil
	c.origin = nil
	c.higher = HigherSelection{}
	c.clearPracticeLocked()
	c.problem = nil
	c.topic = ""
}

func (c *Controller) clearPracticeLocked() {
	c.practice.reset()
	c.answer = ""
}

// notify queues the current snapshot for the observer. The first caller to
// find no delivery in progress drains the queue with no lock held, so an
// observer may issue intents; their snapshots are delivered after it returns.
func (c *Controller) notify() {
	if c.observer == nil {
		return
	}
	c.notifyMu.Lock()
	c.pending = append(c.pending, c.Snapshot())
	if c.delivering {
		c.notifyMu.Unlock()
		return
	}
	c.delivering = true
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		c.notifyMu.Unlock()
		c.observer(next)
		c.notifyMu.Lock()
	}
	c.delivering = false
	c.notifyMu.Unlock()
}

func topicOf(v View) model.Topic {
	switch v {
	case ViewPartialForm:
		return model.TopicPartial
	case ViewDirectionalForm:
		return model.TopicDirectional
	default:
		return ""
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/calcflow/flow"
	"github.com/richinex/calcflow/gateway/gatewaytest"
	"github.com/richinex/calcflow/model"
	"github.com/richinex/calcflow/storage"
)

func newTestApp(t *testing.T, jsonOutput bool) (*App, *gatewaytest.Fake, *bytes.Buffer) {
	t.Helper()
	fake := gatewaytest.New()
	var out bytes.Buffer
	app := NewApp(fake, storage.NewInMemoryHistory(), &out, jsonOutput, nil)
	t.Cleanup(func() { _ = app.Close() })
	return app, fake, &out
}

func TestPartialRendersResult(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	ctx := context.Background()

	err := app.Partial(ctx, PartialArgs{Function: "x^3*y^2 + 5*x", Variable: "x", Point: "1, 2"})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "∂f/∂x of f(x, y) = x^3*y^2 + 5*x at (x=1, y=2)")
	assert.Contains(t, text, "Result: "+gatewaytest.SampleResult().Result)
	assert.Contains(t, text, "Key points:")
	assert.NotContains(t, text, "Solution:")

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, model.PartialRequest{
		Function: "x^3*y^2 + 5*x",
		Variable: model.VarX,
		Point:    model.Point{X: "1", Y: "2"},
		VarCount: model.TwoVars,
	}, reqs[0])

	entries, err := app.History.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.KindPartial, entries[0].Kind)
}

func TestPartialHigherOrder(t *testing.T) {
	t.Run("same point", func(t *testing.T) {
		app, fake, out := newTestApp(t, false)
		err := app.Partial(context.Background(), PartialArgs{
			Function: "x*y", Variable: "x", Point: "1,2",
			Second: "y", SamePoint: true, Solution: true,
		})
		require.NoError(t, err)

		reqs := fake.Requests()
		require.Len(t, reqs, 2)
		higher, ok := reqs[1].(model.HigherPartialRequest)
		require.True(t, ok)
		assert.Equal(t, model.VarX, higher.First)
		assert.Equal(t, model.VarY, higher.Second)
		assert.Equal(t, model.Point{X: "1", Y: "2"}, higher.Point)
		assert.Contains(t, out.String(), "∂²f/∂y∂x")
		assert.Contains(t, out.String(), "Solution:")
	})

	t.Run("new point", func(t *testing.T) {
		app, fake, _ := newTestApp(t, false)
		err := app.Partial(context.Background(), PartialArgs{
			Function: "x*y", Variable: "x", Point: "1,2",
			Second: "x", Point2: ",3",
		})
		require.NoError(t, err)

		reqs := fake.Requests()
		require.Len(t, reqs, 2)
		higher := reqs[1].(model.HigherPartialRequest)
		assert.Equal(t, model.Point{Y: "3"}, higher.Point)
	})
}

func TestPartialFailure(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	fake.Fail(nil)

	err := app.Partial(context.Background(), PartialArgs{Function: "x*y", Variable: "y"})
	require.ErrorIs(t, err, ErrCalculationFailed)
	assert.Contains(t, out.String(), flow.MessagePartialFailed)
	assert.NotContains(t, out.String(), gatewaytest.ErrUnavailable.Error())

	entries, err := app.History.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPartialRejectsInvalidInput(t *testing.T) {
	app, fake, _ := newTestApp(t, false)
	ctx := context.Background()

	require.Error(t, app.Partial(ctx, PartialArgs{Function: "x*y", Variable: "w"}))
	require.Error(t, app.Partial(ctx, PartialArgs{Function: "x*y", Variable: "x", Vars: 4}))
	require.Error(t, app.Partial(ctx, PartialArgs{Function: "  ", Variable: "x"}))
	require.Error(t, app.Partial(ctx, PartialArgs{Function: "x*y", Variable: "z"}))
	assert.Zero(t, fake.Calls())
}

func TestDirectional(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	err := app.Directional(context.Background(), DirectionalArgs{
		Function: "x^2 - 3*x*y", Point: "1,2", Angle: "0.5",
	})
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0].(model.DirectionalRequest)
	assert.Equal(t, model.AngleDirection{Radians: "0.5"}, req.Direction)
	assert.Contains(t, out.String(), "Result: ")
}

func TestDirectionalFailureMessage(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	fake.Fail(nil)

	err := app.Directional(context.Background(), DirectionalArgs{
		Function: "x+y+z", Point: "1,1,1", Vars: 3, To: "2,3,0",
	})
	require.ErrorIs(t, err, ErrCalculationFailed)
	assert.Contains(t, out.String(), flow.MessageDirectionalFailed)
}

func TestPartialJSONOutput(t *testing.T) {
	app, _, out := newTestApp(t, true)
	require.NoError(t, app.Partial(context.Background(), PartialArgs{Function: "x*y", Variable: "x", Solution: true}))

	var decoded struct {
		Kind     string       `json:"kind"`
		Phase    string       `json:"phase"`
		Result   model.Result `json:"result"`
		Revealed bool         `json:"solutionRevealed"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "partial", decoded.Kind)
	assert.Equal(t, "success", decoded.Phase)
	assert.Equal(t, gatewaytest.SampleResult(), decoded.Result)
	assert.True(t, decoded.Revealed)
}

func TestPractice(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	ctx := context.Background()

	require.NoError(t, app.PracticeList())
	assert.Contains(t, out.String(), "Basic Partial Differentiation")
	out.Reset()

	require.NoError(t, app.PracticeCheck(ctx, "1", "17", true))
	text := out.String()
	assert.Contains(t, text, "Your answer: 17")
	assert.Contains(t, text, "Correct.")
	assert.Contains(t, text, "Solution:")

	p, _ := app.Catalog.Lookup("1")
	assert.Equal(t, []any{model.PracticeRequest{Question: p.Question, Answer: "17"}}, fake.Requests())

	err := app.PracticeCheck(ctx, "99", "17", false)
	require.ErrorIs(t, err, flow.ErrUnknownProblem)

	err = app.PracticeCheck(ctx, "1", " ", false)
	require.Error(t, err)
	assert.Len(t, fake.Requests(), 1)
}

func TestPracticeFailure(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	fake.Fail(nil)

	err := app.PracticeCheck(context.Background(), "2", "0", true)
	require.ErrorIs(t, err, ErrCalculationFailed)
	assert.Contains(t, out.String(), flow.MessagePracticeFailed)
	assert.NotContains(t, out.String(), "Solution:")
}

func TestHistory(t *testing.T) {
	app, _, out := newTestApp(t, false)
	ctx := context.Background()

	require.NoError(t, app.HistoryList(ctx, 10))
	assert.Contains(t, out.String(), "No calculations recorded.")

	require.NoError(t, app.Partial(ctx, PartialArgs{Function: "x*y", Variable: "x"}))
	require.NoError(t, app.PracticeCheck(ctx, "1", "17", false))
	out.Reset()

	require.NoError(t, app.HistoryList(ctx, 0))
	lines := out.String()
	assert.Contains(t, lines, "practice")
	assert.Contains(t, lines, "= correct")
	assert.Contains(t, lines, "= "+gatewaytest.SampleResult().Result)
	assert.Less(t, strings.Index(lines, "practice"), strings.Index(lines, "partial"))

	out.Reset()
	require.NoError(t, app.HistoryClear(ctx))
	entries, err := app.History.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInteractive(t *testing.T) {
	app, fake, out := newTestApp(t, false)
	script := strings.Join([]string{
		"go partial",
		"f x*y",
		"x 1",
		"y 2",
		"diff x",
		"higher",
		"same",
		"wrt y",
		"solution",
		"bogus",
		"go topics",
		"list",
		"open 3",
		"answer -4",
		"check",
		"reveal",
		"quit",
		"diff y",
	}, "\n")

	require.NoError(t, app.Interactive(context.Background(), strings.NewReader(script)))

	reqs := fake.Requests()
	require.Len(t, reqs, 3)
	assert.IsType(t, model.PartialRequest{}, reqs[0])
	assert.IsType(t, model.HigherPartialRequest{}, reqs[1])
	assert.IsType(t, model.PracticeRequest{}, reqs[2])

	text := out.String()
	assert.Contains(t, text, "Type 'higher'")
	assert.Contains(t, text, "Solution:")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.Contains(t, text, "Directional Gradient")
	assert.Contains(t, text, "Correct.")
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("1, ,3")
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: "1", Z: "3"}, p)

	p, err = parsePoint("")
	require.NoError(t, err)
	assert.Equal(t, model.Point{}, p)

	_, err = parsePoint("1,2,3,4")
	require.Error(t, err)
}

// hookWriter runs onWrite after the first write.
type hookWriter struct {
	bytes.Buffer
	once    sync.Once
	onWrite func()
}

func (w *hookWriter) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	w.once.Do(func() {
		if w.onWrite != nil {
			w.onWrite()
		}
	})
	return n, err
}

func TestInteractiveShowsPendingCalculation(t *testing.T) {
	fake := gatewaytest.New()
	fake.Hold()
	out := &hookWriter{}
	app := NewApp(fake, nil, out, false, nil)
	ctx := context.Background()

	c := app.Controller()
	require.NoError(t, enterTopic(c, flow.ViewPartialForm))
	c.Sessions().SetPartialFunction("x*y")
	require.NoError(t, c.SubmitPartial(ctx, model.VarX))
	call, err := fake.Next(ctx)
	require.NoError(t, err)

	out.onWrite = func() { fake.Release(call) }
	app.await(c)

	assert.Equal(t, "Computing...\n", out.String())
	assert.Equal(t, flow.PhaseSuccess, c.Snapshot().Calculation.Phase)
}

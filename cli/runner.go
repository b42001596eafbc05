// Command execution for CLI commands.
//
// Information Hiding:
// - Each one-shot command replays the intents a user would issue
// - Coordinate list parsing hidden
// - Output formatting delegated to render.go

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/calcflow/flow"
	"github.com/richinex/calcflow/model"
)

// ErrCalculationFailed is returned when the gateway call behind a command
// did not succeed. The user-facing message has already been rendered.
var ErrCalculationFailed = errors.New("calculation failed")

// PartialArgs describes a partial derivative command.
type PartialArgs struct {
	Function string
	Variable string
	// Point is a comma-separated coordinate list; empty entries stay symbolic.
	Point string
	Vars  int

	// Second, when set, continues with ∂²f/∂Second∂Variable.
	Second    string
	SamePoint bool
	// Point2 is the evaluation point of the higher-order step when
	// SamePoint is false.
	Point2 string

	Solution bool
}

// DirectionalArgs describes a directional derivative command. Exactly one
// of Vector, Angle and To is expected.
type DirectionalArgs struct {
	Function string
	Point    string
	Vars     int
	Vector   string
	Angle    string
	To       string
	Solution bool
}

// Partial runs a first-order partial derivative and, optionally, the
// higher-order continuation.
func (a *App) Partial(ctx context.Context, args PartialArgs) error {
	variable, err := model.ParseVariable(args.Variable)
	if err != nil {
		return err
	}
	n, err := varCount(args.Vars)
	if err != nil {
		return err
	}
	point, err := parsePoint(args.Point)
	if err != nil {
		return err
	}

	c := a.Controller()
	if err := enterTopic(c, flow.ViewPartialForm); err != nil {
		return err
	}
	c.Sessions().SetPartialFunction(args.Function)
	c.Sessions().SetPartialVarCount(n)
	c.Sessions().SetPartialPoint(point)

	if err := c.SubmitPartial(ctx, variable); err != nil {
		return err
	}
	c.Wait()

	if args.Second != "" && c.Snapshot().Calculation.Phase == flow.PhaseSuccess {
		if err := a.continueHigher(ctx, c, args); err != nil {
			return err
		}
	}
	return a.finishCalculation(c, args.Solution)
}

func (a *App) continueHigher(ctx context.Context, c *flow.Controller, args PartialArgs) error {
	second, err := model.ParseVariable(args.Second)
	if err != nil {
		return err
	}
	if !args.SamePoint {
		point, err := parsePoint(args.Point2)
		if err != nil {
			return err
		}
		c.Sessions().SetPartialPoint(point)
	}

	if err := c.OpenHigher(); err != nil {
		return err
	}
	if err := c.ChooseHigherPoint(args.SamePoint); err != nil {
		return err
	}
	if err := c.SubmitHigher(ctx, second); err != nil {
		return err
	}
	c.Wait()
	return nil
}

// Directional runs a directional derivative.
func (a *App) Directional(ctx context.Context, args DirectionalArgs) error {
	n, err := varCount(args.Vars)
	if err != nil {
		return err
	}
	point, err := parsePoint(args.Point)
	if err != nil {
		return err
	}

	c := a.Controller()
	if err := enterTopic(c, flow.ViewDirectionalForm); err != nil {
		return err
	}
	s := c.Sessions()
	s.SetDirectionalFunction(args.Function)
	s.SetDirectionalVarCount(n)
	s.SetDirectionalPoint(point)

	switch {
	case args.Angle != "":
		s.SetDirectionMode(model.ModeAngle)
		s.SetDirectionComponents(args.Angle, "", "")
	case args.To != "":
		s.SetDirectionMode(model.ModeTwoPoints)
		if err := setComponents(c, args.To); err != nil {
			return err
		}
	default:
		s.SetDirectionMode(model.ModeVector)
		if err := setComponents(c, args.Vector); err != nil {
			return err
		}
	}

	if err := c.SubmitDirectional(ctx); err != nil {
		return err
	}
	c.Wait()
	return a.finishCalculation(c, args.Solution)
}

func (a *App) finishCalculation(c *flow.Controller, solution bool) error {
	snap := c.Snapshot()
	if solution && snap.Calculation.Phase == flow.PhaseSuccess {
		if err := c.RevealSolution(); err != nil {
			return err
		}
		snap = c.Snapshot()
	}
	if err := renderCalculation(a.out, snap, a.json); err != nil {
		return err
	}
	if snap.Calculation.Phase == flow.PhaseError {
		return ErrCalculationFailed
	}
	return nil
}

// PracticeList prints the practice catalog.
func (a *App) PracticeList() error {
	return renderProblems(a.out, a.Catalog.Problems(), a.json)
}

// PracticeCheck evaluates an answer to catalog problem id.
func (a *App) PracticeCheck(ctx context.Context, id, answer string, showSolution bool) error {
	c := a.Controller()
	if err := enterTopic(c, flow.ViewPracticeList); err != nil {
		return err
	}
	if err := c.SelectProblem(id); err != nil {
		return err
	}
	if err := c.SetPracticeAnswer(answer); err != nil {
		return err
	}
	if err := c.SubmitPracticeAnswer(ctx); err != nil {
		return err
	}
	c.Wait()

	snap := c.Snapshot()
	if showSolution && snap.Practice.Phase == flow.PhaseSuccess {
		if err := c.RevealPracticeSolution(); err != nil {
			return err
		}
		snap = c.Snapshot()
	}
	if err := renderPractice(a.out, snap, a.json); err != nil {
		return err
	}
	if snap.Practice.Phase == flow.PhaseError {
		return ErrCalculationFailed
	}
	return nil
}

// HistoryList prints up to limit recorded calculations, newest first.
// A limit of zero or less prints everything.
func (a *App) HistoryList(ctx context.Context, limit int) error {
	entries, err := a.History.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return renderHistory(a.out, entries, a.json)
}

// HistoryClear removes every recorded calculation.
func (a *App) HistoryClear(ctx context.Context) error {
	if err := a.History.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if !a.json {
		fmt.Fprintln(a.out, "History cleared.")
	}
	return nil
}

// enterTopic walks through the topic list to v.
func enterTopic(c *flow.Controller, v flow.View) error {
	if c.Snapshot().View != flow.ViewTopics {
		if err := c.NavigateTo(flow.ViewTopics); err != nil {
			return err
		}
	}
	return c.NavigateTo(v)
}

func varCount(n int) (model.VarCount, error) {
	if n == 0 {
		return model.TwoVars, nil
	}
	vc := model.VarCount(n)
	if !vc.Valid() {
		return 0, fmt.Errorf("unsupported variable count %d (expected 2 or 3)", n)
	}
	return vc, nil
}

// splitList splits "1, 2,,3" into its trimmed fields, keeping empty ones.
// At most three fields are accepted.
func splitList(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	if len(fields) > 3 {
		return nil, fmt.Errorf("too many values in %q (at most 3)", s)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func parsePoint(s string) (model.Point, error) {
	fields, err := splitList(s)
	if err != nil {
		return model.Point{}, err
	}
	var p model.Point
	for i, f := range fields {
		switch i {
		case 0:
			p.X = f
		case 1:
			p.Y = f
		case 2:
			p.Z = f
		}
	}
	return p, nil
}

func setComponents(c *flow.Controller, s string) error {
	fields, err := splitList(s)
	if err != nil {
		return err
	}
	fields = append(fields, "", "", "")
	c.Sessions().SetDirectionComponents(fields[0], fields[1], fields[2])
	return nil
}

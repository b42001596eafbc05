// Interactive session over the flow controller.
//
// Information Hiding:
// - Line commands mapped onto controller intents
// - Prompt display only when stdin is a terminal

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/richinex/calcflow/flow"
	"github.com/richinex/calcflow/model"
	"github.com/richinex/calcflow/session"
)

const interactiveHelp = `Navigation:
  go <view>          move to start, topics, partial, directional, result, solution, practice
  reset              start over from the topic list
  show               print the current screen
Forms:
  f <expression>     set the function
  vars <2|3>         set the number of variables
  x|y|z [value]      set a point coordinate (no value = symbolic)
  point <a,b[,c]>    set the whole point
  diff <x|y|z>       compute the partial derivative
  mode <vector|angle|points>
  dir <a,b[,c]>      set the direction (vector, angle, or target point)
  submit             compute the directional derivative
Results:
  solution           show the full solution
  higher             start a higher-order derivative
  same | new         reuse the original point, or use the form point
  wrt <x|y|z>        choose the second variable and compute
  cancel             close the higher-order selection
Practice:
  list               open the practice problems
  open <id>          open a problem
  answer <text>      set your answer
  check              evaluate the answer
  reveal             show the full solution
  retry              clear the answer and feedback
Other:
  history [n]        show recorded calculations
  help, quit`

// Interactive runs a line-oriented session reading commands from in.
func (a *App) Interactive(ctx context.Context, in io.Reader) error {
	prompt := false
	if f, ok := in.(*os.File); ok {
		prompt = term.IsTerminal(int(f.Fd()))
	}

	c := a.Controller()
	if err := c.NavigateTo(flow.ViewTopics); err != nil {
		return err
	}
	if prompt {
		fmt.Fprintln(a.out, "Multivariable calculus assistant. Type 'help' for commands, 'quit' to exit.")
		fmt.Fprintln(a.out)
	}
	a.show(c)

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprintf(a.out, "%s> ", c.Snapshot().View)
		}
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(input, " ")
		arg = strings.TrimSpace(arg)
		if cmd == "quit" || cmd == "exit" {
			break
		}

		if err := a.dispatch(ctx, c, cmd, arg); err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
	c.Wait()
	return scanner.Err()
}

func (a *App) dispatch(ctx context.Context, c *flow.Controller, cmd, arg string) error {
	switch cmd {
	case "help", "?":
		fmt.Fprintln(a.out, interactiveHelp)
		return nil
	case "show":
		a.show(c)
		return nil
	case "go":
		v, err := flow.ParseView(arg)
		if err != nil {
			return err
		}
		if err := c.NavigateTo(v); err != nil {
			return err
		}
	case "reset":
		c.Reset()
	case "f", "vars", "x", "y", "z", "point":
		if err := a.editForm(c, cmd, arg); err != nil {
			return err
		}
	case "mode":
		mode, err := model.ParseDirectionMode(arg)
		if err != nil {
			return err
		}
		c.Sessions().SetDirectionMode(mode)
	case "dir":
		if err := setComponents(c, arg); err != nil {
			return err
		}
	case "diff":
		v, err := model.ParseVariable(arg)
		if err != nil {
			return err
		}
		if err := c.SubmitPartial(ctx, v); err != nil {
			return err
		}
		a.await(c)
	case "submit":
		if err := c.SubmitDirectional(ctx); err != nil {
			return err
		}
		a.await(c)
	case "solution":
		if err := c.RevealSolution(); err != nil {
			return err
		}
	case "higher":
		if err := c.OpenHigher(); err != nil {
			return err
		}
	case "same", "new":
		if err := c.ChooseHigherPoint(cmd == "same"); err != nil {
			return err
		}
	case "wrt":
		v, err := model.ParseVariable(arg)
		if err != nil {
			return err
		}
		if err := c.SubmitHigher(ctx, v); err != nil {
			return err
		}
		a.await(c)
	case "cancel":
		c.CancelHigher()
	case "list":
		if c.Snapshot().View != flow.ViewPracticeList {
			if err := enterTopic(c, flow.ViewPracticeList); err != nil {
				return err
			}
		}
	case "open":
		if err := c.SelectProblem(arg); err != nil {
			return err
		}
	case "answer":
		if err := c.SetPracticeAnswer(arg); err != nil {
			return err
		}
		return nil
	case "check":
		if err := c.SubmitPracticeAnswer(ctx); err != nil {
			return err
		}
		a.await(c)
	case "reveal":
		if err := c.RevealPracticeSolution(); err != nil {
			return err
		}
	case "retry":
		if err := c.RetryPractice(); err != nil {
			return err
		}
	case "history":
		limit := 10
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid limit %q", arg)
			}
			limit = n
		}
		return a.HistoryList(ctx, limit)
	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
	a.show(c)
	return nil
}

// editForm applies a field edit to the form of the current topic.
func (a *App) editForm(c *flow.Controller, cmd, arg string) error {
	snap := c.Snapshot()
	if snap.Topic != model.TopicPartial && snap.Topic != model.TopicDirectional {
		return fmt.Errorf("%w: no form open", flow.ErrNotAvailable)
	}
	partial := snap.Topic == model.TopicPartial
	s := c.Sessions()

	switch cmd {
	case "f":
		if partial {
			s.SetPartialFunction(arg)
		} else {
			s.SetDirectionalFunction(arg)
		}
	case "vars":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid variable count %q", arg)
		}
		vc, err := varCount(n)
		if err != nil {
			return err
		}
		if partial {
			s.SetPartialVarCount(vc)
		} else {
			s.SetDirectionalVarCount(vc)
		}
	case "point":
		p, err := parsePoint(arg)
		if err != nil {
			return err
		}
		if partial {
			s.SetPartialPoint(p)
		} else {
			s.SetDirectionalPoint(p)
		}
	default:
		axis := map[string]session.Axis{"x": session.AxisX, "y": session.AxisY, "z": session.AxisZ}[cmd]
		if partial {
			s.SetPartialCoordinate(axis, arg)
		} else {
			s.SetDirectionalCoordinate(axis, arg)
		}
	}
	return nil
}

// await reports a pending gateway call and blocks until it is applied.
func (a *App) await(c *flow.Controller) {
	snap := c.Snapshot()
	if snap.Calculation.Loading() || snap.Practice.Loading() {
		fmt.Fprintln(a.out, "Computing...")
	}
	c.Wait()
}

// show prints the screen for the current view.
func (a *App) show(c *flow.Controller) {
	snap := c.Snapshot()
	switch snap.View {
	case flow.ViewStart:
		fmt.Fprintln(a.out, "Type 'go topics' to begin.")
	case flow.ViewTopics:
		fmt.Fprintln(a.out, "Topics: partial, directional, practice (go <topic>)")
	case flow.ViewPartialForm:
		f := snap.Partial
		fmt.Fprintf(a.out, "f(%s) = %s\nPoint: %s\n", f.VarCount.List(), orBlank(f.Function), model.FormatNamedPoint(f.Point, f.VarCount, "?"))
	case flow.ViewDirectionalForm:
		f := snap.Directional
		fmt.Fprintf(a.out, "f(%s) = %s\nPoint: %s\nDirection (%s): %s, %s, %s\n",
			f.VarCount.List(), orBlank(f.Function), model.FormatNamedPoint(f.Point, f.VarCount, "?"),
			f.Mode, orBlank(f.A), orBlank(f.B), orBlank(f.C))
	case flow.ViewResult, flow.ViewSolution:
		_ = renderCalculation(a.out, snap, false)
		switch snap.Higher.Stage {
		case flow.HigherChoosePoint:
			fmt.Fprintln(a.out, "\nUse the same point ('same') or a new point from the form ('new')?")
		case flow.HigherChooseVariable:
			fmt.Fprintln(a.out, "\nDifferentiate again with respect to ('wrt x|y|z'):")
		default:
			if snap.CanOpenHigher {
				fmt.Fprintln(a.out, "\nType 'higher' for a higher-order derivative.")
			}
		}
	case flow.ViewPracticeList:
		_ = renderProblems(a.out, a.Catalog.Problems(), false)
	case flow.ViewPracticeDetail:
		_ = renderPractice(a.out, snap, false)
	}
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_"
	}
	return s
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/richinex/calcflow/flow"
	"github.com/richinex/calcflow/model"
	"github.com/richinex/calcflow/storage"
)

const rule = "────────────────────────────────────────"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// calculationOutput is the JSON form of a calculation snapshot.
type calculationOutput struct {
	Kind     model.Kind    `json:"kind,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	Request  model.Request `json:"request,omitempty"`
	Phase    string        `json:"phase"`
	Result   *model.Result `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
	Revealed bool          `json:"solutionRevealed"`
}

func renderCalculation(w io.Writer, s flow.Snapshot, asJSON bool) error {
	if asJSON {
		out := calculationOutput{
			Request:  s.Request,
			Phase:    s.Calculation.Phase.String(),
			Result:   s.Calculation.Payload,
			Error:    s.Calculation.ErrorMessage,
			Revealed: s.Calculation.SolutionRevealed,
		}
		if s.Request != nil {
			out.Kind = s.Request.Kind()
			out.Summary = s.Request.Summary()
		}
		return writeJSON(w, out)
	}

	if s.Request != nil {
		fmt.Fprintf(w, "%s\n%s\n", s.Request.Summary(), rule)
	}
	switch s.Calculation.Phase {
	case flow.PhaseIdle:
		fmt.Fprintln(w, "No calculation yet.")
	case flow.PhaseLoading:
		fmt.Fprintln(w, "Computing...")
	case flow.PhaseError:
		fmt.Fprintf(w, "Error: %s\n", s.Calculation.ErrorMessage)
	case flow.PhaseSuccess:
		r := s.Calculation.Payload
		fmt.Fprintf(w, "Result: %s\n\n%s\n", r.Result, r.Explanation)
		renderKeyPoints(w, r.KeyPoints)
		if s.Calculation.SolutionRevealed {
			fmt.Fprintf(w, "\nSolution:\n%s\n", r.FullSolution)
		}
	}
	return nil
}

// feedbackOutput is the JSON form of a practice snapshot.
type feedbackOutput struct {
	Problem  *model.PracticeProblem  `json:"problem,omitempty"`
	Answer   string                  `json:"answer"`
	Phase    string                  `json:"phase"`
	Feedback *model.PracticeFeedback `json:"feedback,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Revealed bool                    `json:"solutionRevealed"`
}

func renderPractice(w io.Writer, s flow.Snapshot, asJSON bool) error {
	if asJSON {
		return writeJSON(w, feedbackOutput{
			Problem:  s.Problem,
			Answer:   s.Answer,
			Phase:    s.Practice.Phase.String(),
			Feedback: s.Practice.Payload,
			Error:    s.Practice.ErrorMessage,
			Revealed: s.Practice.SolutionRevealed,
		})
	}

	if s.Problem != nil {
		fmt.Fprintf(w, "%s [%s, %s]\n%s\n%s\n", s.Problem.Title, s.Problem.Type, s.Problem.Difficulty, s.Problem.Question, rule)
	}
	if s.Answer != "" {
		fmt.Fprintf(w, "Your answer: %s\n", s.Answer)
	}
	switch s.Practice.Phase {
	case flow.PhaseLoading:
		fmt.Fprintln(w, "Checking...")
	case flow.PhaseError:
		fmt.Fprintf(w, "Error: %s\n", s.Practice.ErrorMessage)
	case flow.PhaseSuccess:
		fb := s.Practice.Payload
		verdict := "Incorrect"
		if fb.IsCorrect {
			verdict = "Correct"
		}
		fmt.Fprintf(w, "%s. %s\n", verdict, fb.Feedback)
		renderKeyPoints(w, fb.KeyPoints)
		if s.Practice.SolutionRevealed {
			fmt.Fprintf(w, "\nSolution:\n%s\n", fb.FullSolution)
		}
	}
	return nil
}

func renderKeyPoints(w io.Writer, points []string) {
	if len(points) == 0 {
		return
	}
	fmt.Fprintln(w, "\nKey points:")
	for _, p := range points {
		fmt.Fprintf(w, "  • %s\n", p)
	}
}

func renderProblems(w io.Writer, problems []model.PracticeProblem, asJSON bool) error {
	if asJSON {
		return writeJSON(w, problems)
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%-3s %-32s %-12s %s\n", p.ID, p.Title, p.Type, p.Difficulty)
	}
	return nil
}

func renderHistory(w io.Writer, entries []storage.Entry, asJSON bool) error {
	if asJSON {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No calculations recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-15s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Summary)
		if summary := resultLine(e.Result); summary != "" {
			fmt.Fprintf(w, "    = %s\n", summary)
		}
	}
	return nil
}

// resultLine extracts the headline answer from a stored payload.
func resultLine(raw json.RawMessage) string {
	var payload struct {
		Result    string `json:"result"`
		Feedback  string `json:"feedback"`
		IsCorrect *bool  `json:"isCorrect"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.IsCorrect != nil {
		if *payload.IsCorrect {
			return "correct"
		}
		return "incorrect"
	}
	return strings.TrimSpace(payload.Result)
}

package gateway

import (
	"fmt"
	"strings"

	"github.com/richinex/calcflow/model"
)

const derivativeSystemPrompt = `You are a multivariable calculus tutor.
Reply in JSON with exactly the fields result, explanation, fullSolution and keyPoints.`

const practiceSystemPrompt = `You are a multivariable calculus tutor grading a student's answer.
Reply in JSON with exactly the fields isCorrect, feedback, fullSolution and keyPoints.`

func rules(items ...string) string {
	var b strings.Builder
	b.WriteString("STRICT RULES:")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}

// evaluationClause renders where the result is evaluated. Any present
// coordinate makes the request numeric; missing ones are sent as "?".
func evaluationClause(p model.Point, n model.VarCount, symbolic string) string {
	if p.Symbolic(n) {
		return fmt.Sprintf("as a general symbolic expression %s(%s)", symbolic, n.List())
	}
	return "evaluated at the point " + model.FormatNamedPoint(p, n, "?")
}

func partialPrompt(r model.PartialRequest) string {
	return fmt.Sprintf("Calculate the partial derivative of f(%s) = %s with respect to %s.\nProvide the result %s.\n\n%s",
		r.VarCount.List(), r.Function, r.Variable,
		evaluationClause(r.Point, r.VarCount, "f_"+string(r.Variable)),
		rules(
			"Output the final answer in symbolic math notation.",
			"For the 'fullSolution', show every symbolic step (Power Rule, Chain Rule, etc.).",
			"Add TWO newlines between every major algebraic step for vertical spacing.",
			"Explicitly state which variables are being held constant during the differentiation.",
			"Use Unicode mathematical symbols (∂, f_x, Σ, etc.) where appropriate.",
		))
}

func higherPartialPrompt(r model.HigherPartialRequest) string {
	subscript := string(r.First) + string(r.Second)
	return fmt.Sprintf("Calculate the second-order partial derivative (∂²f / ∂%s∂%s) of f(%s) = %s.\nProvide the result %s.\n\n%s",
		r.Second, r.First, r.VarCount.List(), r.Function,
		evaluationClause(r.Point, r.VarCount, "f_"+subscript),
		rules(
			fmt.Sprintf("Output the final answer in symbolic math notation (e.g., f_%s = ...).", subscript),
			"For the 'fullSolution', show the first partial derivative step, then show the second differentiation step.",
			"Add TWO newlines between major algebraic steps.",
			"Use Unicode mathematical symbols.",
		))
}

func directionClause(r model.DirectionalRequest) string {
	switch d := r.Direction.(type) {
	case model.VectorDirection:
		return "in the direction of the " + d.Describe(r.VarCount)
	case model.AngleDirection:
		return "in the direction of the " + d.Describe(r.VarCount)
	case model.TwoPointsDirection:
		return fmt.Sprintf("in the direction from point P%s to point Q%s",
			model.FormatPoint(r.Point, r.VarCount, ""), model.FormatPoint(d.Target, r.VarCount, ""))
	default:
		return ""
	}
}

func directionalPrompt(r model.DirectionalRequest) string {
	return fmt.Sprintf("Calculate the directional derivative D_u f of f(%s) = %s at point %s %s.\n\n%s",
		r.VarCount.List(), r.Function, model.FormatPoint(r.Point, r.VarCount, ""), directionClause(r),
		rules(
			"Explain that D_u f = ∇f · u.",
			"Show the calculation of the Gradient Vector ∇f at the point.",
			"Show the normalization of the direction vector into a Unit Vector u.",
			"Show the Dot Product step clearly.",
			"Add TWO newlines between every major algebraic step for vertical spacing.",
			"Use symbolic notation (∇, ·, ||v||).",
		))
}

func practicePrompt(r model.PracticeRequest) string {
	return fmt.Sprintf("Evaluate the following calculus practice problem answer.\nProblem: %s\nUser's Answer: %s\n\n%s",
		r.Question, r.Answer,
		rules(
			"isCorrect: Boolean based on mathematical equivalence.",
			"feedback: Encouraging, short feedback.",
			"fullSolution: Extremely neat, step-by-step derivation. Use TWO newlines between every step. Use symbolic notation (∂, ∇, dot product, etc.).",
			"keyPoints: 3-4 short, clear takeaways.",
		))
}

// Package model provides domain types shared across packages.
package model

import (
	"fmt"
	"strings"
)

// Variable is a differentiation variable of a multivariable function.
type Variable string

const (
	VarX Variable = "x"
	VarY Variable = "y"
	VarZ Variable = "z"
)

// ParseVariable parses a variable name (case-insensitive).
func ParseVariable(s string) (Variable, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return VarX, nil
	case "y":
		return VarY, nil
	case "z":
		return VarZ, nil
	default:
		return "", fmt.Errorf("unknown variable: %q", s)
	}
}

// VarCount is the number of independent variables of f.
type VarCount int

const (
	TwoVars   VarCount = 2
	ThreeVars VarCount = 3
)

// Valid reports whether n is a supported variable count.
func (n VarCount) Valid() bool {
	return n == TwoVars || n == ThreeVars
}

// Variables returns the variables of f in order.
func (n VarCount) Variables() []Variable {
	if n == ThreeVars {
		return []Variable{VarX, VarY, VarZ}
	}
	return []Variable{VarX, VarY}
}

// Has reports whether v is one of the variables of a function with n variables.
func (n VarCount) Has(v Variable) bool {
	for _, candidate := range n.Variables() {
		if candidate == v {
			return true
		}
	}
	return false
}

// List renders the variable list, e.g. "x, y, z".
func (n VarCount) List() string {
	vars := n.Variables()
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// Point holds evaluation coordinates as entered. An empty coordinate means
// "symbolic". Z is only meaningful for three-variable functions.
type Point struct {
	X string `json:"x"`
	Y string `json:"y"`
	Z string `json:"z,omitempty"`
}

// Normalize drops Z for two-variable functions.
func (p Point) Normalize(n VarCount) Point {
	if n != ThreeVars {
		p.Z = ""
	}
	return p
}

// Symbolic reports whether every coordinate present for n variables is empty.
func (p Point) Symbolic(n VarCount) bool {
	p = p.Normalize(n)
	return strings.TrimSpace(p.X) == "" && strings.TrimSpace(p.Y) == "" && strings.TrimSpace(p.Z) == ""
}

// Topic identifies a calculation topic (and the type of a practice problem).
type Topic string

const (
	TopicPartial     Topic = "PARTIAL"
	TopicDirectional Topic = "DIRECTIONAL"
)

// Difficulty grades a practice problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// PracticeProblem is a static catalog entry.
type PracticeProblem struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Question   string     `json:"question" yaml:"question"`
	Type       Topic      `json:"type" yaml:"type"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
}

// Result is the gateway payload for a derivative computation.
// The core passes it through without interpreting its content.
type Result struct {
	Result       string   `json:"result" jsonschema_description:"The final numerical or symbolic answer using clear mathematical notation (e.g., f_xx = ..., ∂²f/∂x² = ...)."`
	Explanation  string   `json:"explanation" jsonschema_description:"A high-level conceptual interpretation of what this specific result means physically or geometrically."`
	FullSolution string   `json:"fullSolution" jsonschema_description:"A rigorous step-by-step symbolic derivation. Use multiple newlines between steps for extreme vertical spacing. Ensure all variables are shown clearly."`
	KeyPoints    []string `json:"keyPoints" jsonschema:"minItems=1" jsonschema_description:"A list of the 3-4 most important mathematical rules or conceptual takeaways used in this calculation."`
}

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	r.KeyPoints = append([]string(nil), r.KeyPoints...)
	return r
}

// PracticeFeedback is the gateway payload for a practice answer evaluation.
type PracticeFeedback struct {
	IsCorrect    bool     `json:"isCorrect" jsonschema_description:"True if the user's answer is mathematically equivalent to the correct answer."`
	Feedback     string   `json:"feedback" jsonschema_description:"A short encouraging message. If wrong, give a subtle hint without giving away the full steps yet."`
	FullSolution string   `json:"fullSolution" jsonschema_description:"The full step-by-step symbolic derivation with vertical spacing. Use symbols like ∂, ∇, · clearly."`
	KeyPoints    []string `json:"keyPoints" jsonschema:"minItems=1" jsonschema_description:"Important takeaways for this problem."`
}

// Clone returns a copy that shares no slices with f.
func (f PracticeFeedback) Clone() PracticeFeedback {
	f.KeyPoints = append([]string(nil), f.KeyPoints...)
	return f
}

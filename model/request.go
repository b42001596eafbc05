package model

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the category of a computation request.
type Kind string

const (
	KindPartial       Kind = "partial"
	KindHigherPartial Kind = "higher_partial"
	KindDirectional   Kind = "directional"
	KindPractice      Kind = "practice"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Request is a normalized computation request for the derivative operations.
// The set of implementations is closed: PartialRequest, HigherPartialRequest
// and DirectionalRequest.
type Request interface {
	Kind() Kind
	// Summary is a one-line human readable description of the request.
	Summary() string
	isRequest()
}

// PartialRequest asks for ∂f/∂Variable, evaluated at Point unless the point
// is fully symbolic.
type PartialRequest struct {
	Function string   `json:"function"`
	Variable Variable `json:"variable"`
	Point    Point    `json:"point"`
	VarCount VarCount `json:"variableCount"`
}

// HigherPartialRequest asks for ∂²f / ∂Second∂First.
type HigherPartialRequest struct {
	Function string   `json:"function"`
	First    Variable `json:"firstVariable"`
	Second   Variable `json:"secondVariable"`
	Point    Point    `json:"point"`
	VarCount VarCount `json:"variableCount"`
}

// DirectionalRequest asks for D_u f at a concrete Point along Direction.
type DirectionalRequest struct {
	Function  string    `json:"function"`
	Point     Point     `json:"point"`
	Direction Direction `json:"direction"`
	VarCount  VarCount  `json:"variableCount"`
}

func (PartialRequest) Kind() Kind       { return KindPartial }
func (HigherPartialRequest) Kind() Kind { return KindHigherPartial }
func (DirectionalRequest) Kind() Kind   { return KindDirectional }

func (PartialRequest) isRequest()       {}
func (HigherPartialRequest) isRequest() {}
func (DirectionalRequest) isRequest()   {}

// Summary returns a one-line description.
func (r PartialRequest) Summary() string {
	return fmt.Sprintf("∂f/∂%s of f(%s) = %s%s", r.Variable, r.VarCount.List(), r.Function, pointSuffix(r.Point, r.VarCount))
}

// Summary returns a one-line description.
func (r HigherPartialRequest) Summary() string {
	return fmt.Sprintf("∂²f/∂%s∂%s of f(%s) = %s%s", r.Second, r.First, r.VarCount.List(), r.Function, pointSuffix(r.Point, r.VarCount))
}

// Summary returns a one-line description.
func (r DirectionalRequest) Summary() string {
	dir := "unknown direction"
	if r.Direction != nil {
		dir = r.Direction.Describe(r.VarCount)
	}
	return fmt.Sprintf("D_u f of f(%s) = %s at %s, %s", r.VarCount.List(), r.Function, FormatPoint(r.Point, r.VarCount, ""), dir)
}

// MarshalJSON encodes the direction with its mode tag.
func (r DirectionalRequest) MarshalJSON() ([]byte, error) {
	type alias DirectionalRequest
	var mode DirectionMode
	if r.Direction != nil {
		mode = r.Direction.Mode()
	}
	return json.Marshal(struct {
		alias
		Mode DirectionMode `json:"directionMode"`
	}{alias: alias(r), Mode: mode})
}

// PracticeRequest asks the gateway to evaluate a practice answer.
type PracticeRequest struct {
	Question string `json:"question"`
	Answer   string `json:"userAnswer"`
}

// Kind returns KindPractice.
func (PracticeRequest) Kind() Kind { return KindPractice }

// DirectionMode names the way a direction was specified.
type DirectionMode string

const (
	ModeVector    DirectionMode = "vector"
	ModeAngle     DirectionMode = "angle"
	ModeTwoPoints DirectionMode = "twoPoints"
)

// ParseDirectionMode parses a mode name, accepting the short forms used on
// the command line.
func ParseDirectionMode(s string) (DirectionMode, error) {
	switch s {
	case "vector", "v":
		return ModeVector, nil
	case "angle", "theta":
		return ModeAngle, nil
	case "twoPoints", "points", "to":
		return ModeTwoPoints, nil
	default:
		return "", fmt.Errorf("unknown direction mode: %q", s)
	}
}

// Direction is the direction of a directional derivative. Implementations:
// VectorDirection, AngleDirection, TwoPointsDirection.
type Direction interface {
	Mode() DirectionMode
	// Describe renders the direction for a function of n variables.
	Describe(n VarCount) string
	isDirection()
}

// VectorDirection is an explicit direction vector. Z is ignored for two variables.
type VectorDirection struct {
	X string `json:"x"`
	Y string `json:"y"`
	Z string `json:"z,omitempty"`
}

// AngleDirection is a direction in the plane given by an angle in radians.
type AngleDirection struct {
	Radians string `json:"radians"`
}

// TwoPointsDirection points from the evaluation point towards Target.
type TwoPointsDirection struct {
	Target Point `json:"target"`
}

func (VectorDirection) Mode() DirectionMode    { return ModeVector }
func (AngleDirection) Mode() DirectionMode     { return ModeAngle }
func (TwoPointsDirection) Mode() DirectionMode { return ModeTwoPoints }

func (VectorDirection) isDirection()    {}
func (AngleDirection) isDirection()     {}
func (TwoPointsDirection) isDirection() {}

// Describe renders the vector, e.g. "vector v = <3, 4>".
func (d VectorDirection) Describe(n VarCount) string {
	if n == ThreeVars {
		return fmt.Sprintf("vector v = <%s, %s, %s>", d.X, d.Y, d.Z)
	}
	return fmt.Sprintf("vector v = <%s, %s>", d.X, d.Y)
}

// Describe renders the angle.
func (d AngleDirection) Describe(VarCount) string {
	return fmt.Sprintf("angle θ = %s radians", d.Radians)
}

// Describe renders the target point.
func (d TwoPointsDirection) Describe(n VarCount) string {
	return "towards Q" + FormatPoint(d.Target, n, "")
}

// FormatPoint renders coordinates positionally, e.g. "(1, 2)". Empty
// coordinates are replaced by missing.
func FormatPoint(p Point, n VarCount, missing string) string {
	coord := func(v string) string {
		if v == "" {
			return missing
		}
		return v
	}
	if n == ThreeVars {
		return fmt.Sprintf("(%s, %s, %s)", coord(p.X), coord(p.Y), coord(p.Z))
	}
	return fmt.Sprintf("(%s, %s)", coord(p.X), coord(p.Y))
}

// FormatNamedPoint renders coordinates by name, e.g. "(x=1, y=?)".
func FormatNamedPoint(p Point, n VarCount, missing string) string {
	coord := func(v string) string {
		if v == "" {
			return missing
		}
		return v
	}
	if n == ThreeVars {
		return fmt.Sprintf("(x=%s, y=%s, z=%s)", coord(p.X), coord(p.Y), coord(p.Z))
	}
	return fmt.Sprintf("(x=%s, y=%s)", coord(p.X), coord(p.Y))
}

func pointSuffix(p Point, n VarCount) string {
	if p.Symbolic(n) {
		return ""
	}
	return " at " + FormatNamedPoint(p, n, "?")
}

// Verify request variants implement Request
var (
	_ Request = PartialRequest{}
	_ Request = HigherPartialRequest{}
	_ Request = DirectionalRequest{}
)

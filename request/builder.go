// Package request turns raw form fields into normalized computation requests.
//
// Information Hiding:
// - Field-level validation rules per request kind
// - Normalization of coordinates that do not apply to the variable count
// - Function text is passed through verbatim; well-formedness is the gateway's concern
package request

import (
	"fmt"
	"strings"

	"github.com/richinex/calcflow/model"
)

// ValidationError reports a missing or inconsistent form field.
// It is returned before any gateway call is made.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("missing required field: %s", e.Field)
	}
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Message)
}

func missing(field string) error {
	return &ValidationError{Field: field}
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PartialForm holds the raw partial-derivative form fields.
type PartialForm struct {
	Function string         `json:"function"`
	Point    model.Point    `json:"point"`
	VarCount model.VarCount `json:"variableCount"`
}

// DirectionalForm holds the raw directional-derivative form fields.
// A, B and C are interpreted according to Mode: vector components, the
// angle in A, or the target point coordinates.
type DirectionalForm struct {
	Function string              `json:"function"`
	Point    model.Point         `json:"point"`
	VarCount model.VarCount      `json:"variableCount"`
	Mode     model.DirectionMode `json:"mode"`
	A        string              `json:"a"`
	B        string              `json:"b"`
	C        string              `json:"c"`
}

// Partial builds a first-order partial derivative request.
// Coordinates may be given individually; missing ones stay symbolic.
func Partial(form PartialForm, variable model.Variable) (model.PartialRequest, error) {
	if err := checkCommon(form.Function, form.VarCount); err != nil {
		return model.PartialRequest{}, err
	}
	if err := checkVariable("variable", variable, form.VarCount); err != nil {
		return model.PartialRequest{}, err
	}
	return model.PartialRequest{
		Function: form.Function,
		Variable: variable,
		Point:    form.Point.Normalize(form.VarCount),
		VarCount: form.VarCount,
	}, nil
}

// HigherPartial builds a second-order request from the originating
// first-order request, differentiating again with respect to second at point.
func HigherPartial(origin model.PartialRequest, point model.Point, second model.Variable) (model.HigherPartialRequest, error) {
	if err := checkCommon(origin.Function, origin.VarCount); err != nil {
		return model.HigherPartialRequest{}, err
	}
	if err := checkVariable("firstVariable", origin.Variable, origin.VarCount); err != nil {
		return model.HigherPartialRequest{}, err
	}
	if err := checkVariable("secondVariable", second, origin.VarCount); err != nil {
		return model.HigherPartialRequest{}, err
	}
	return model.HigherPartialRequest{
		Function: origin.Function,
		First:    origin.Variable,
		Second:   second,
		Point:    point.Normalize(origin.VarCount),
		VarCount: origin.VarCount,
	}, nil
}

// Directional builds a directional derivative request. The evaluation point
// must be concrete.
func Directional(form DirectionalForm) (model.DirectionalRequest, error) {
	if err := checkCommon(form.Function, form.VarCount); err != nil {
		return model.DirectionalRequest{}, err
	}
	three := form.VarCount == model.ThreeVars

	if err := requireCoordinates("point", form.Point, three); err != nil {
		return model.DirectionalRequest{}, err
	}

	var dir model.Direction
	switch form.Mode {
	case model.ModeVector:
		if err := requireComponents("direction", form.A, form.B, form.C, three); err != nil {
			return model.DirectionalRequest{}, err
		}
		v := model.VectorDirection{X: form.A, Y: form.B}
		if three {
			v.Z = form.C
		}
		dir = v
	case model.ModeAngle:
		if three {
			return model.DirectionalRequest{}, invalid("direction", "angle direction requires a function of two variables")
		}
		if blank(form.A) {
			return model.DirectionalRequest{}, missing("direction.radians")
		}
		dir = model.AngleDirection{Radians: form.A}
	case model.ModeTwoPoints:
		if err := requireComponents("target", form.A, form.B, form.C, three); err != nil {
			return model.DirectionalRequest{}, err
		}
		target := model.Point{X: form.A, Y: form.B}
		if three {
			target.Z = form.C
		}
		dir = model.TwoPointsDirection{Target: target}
	case "":
		return model.DirectionalRequest{}, missing("direction")
	default:
		return model.DirectionalRequest{}, invalid("direction", "unknown mode %q", form.Mode)
	}

	return model.DirectionalRequest{
		Function:  form.Function,
		Point:     form.Point.Normalize(form.VarCount),
		Direction: dir,
		VarCount:  form.VarCount,
	}, nil
}

// Practice builds a practice evaluation request.
func Practice(question, answer string) (model.PracticeRequest, error) {
	if blank(question) {
		return model.PracticeRequest{}, missing("question")
	}
	if blank(answer) {
		return model.PracticeRequest{}, missing("answer")
	}
	return model.PracticeRequest{Question: question, Answer: answer}, nil
}

func checkCommon(function string, n model.VarCount) error {
	if blank(function) {
		return missing("function")
	}
	if !n.Valid() {
		return invalid("variableCount", "must be 2 or 3, got %d", n)
	}
	return nil
}

func checkVariable(field string, v model.Variable, n model.VarCount) error {
	if v == "" {
		return missing(field)
	}
	if !n.Has(v) {
		return invalid(field, "%q is not a variable of f(%s)", v, n.List())
	}
	return nil
}

func requireCoordinates(field string, p model.Point, three bool) error {
	if blank(p.X) {
		return missing(field + ".x")
	}
	if blank(p.Y) {
		return missing(field + ".y")
	}
	if three && blank(p.Z) {
		return missing(field + ".z")
	}
	return nil
}

func requireComponents(field, a, b, c string, three bool) error {
	return requireCoordinates(field, model.Point{X: a, Y: b, Z: c}, three)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

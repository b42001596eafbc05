package flow

import (
	"fmt"
	"strings"
)

// View is a screen of the workflow.
type View int

const (
	ViewStart View = iota
	ViewTopics
	ViewPartialForm
	ViewDirectionalForm
	ViewResult
	ViewSolution
	ViewPracticeList
	ViewPracticeDetail
)

var viewNames = map[View]string{
	ViewStart:           "start",
	ViewTopics:          "topics",
	ViewPartialForm:     "partial",
	ViewDirectionalForm: "directional",
	ViewResult:          "result",
	ViewSolution:        "solution",
	ViewPracticeList:    "practice",
	ViewPracticeDetail:  "problem",
}

// String returns the view name.
func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ParseView parses a view name as returned by String.
func ParseView(s string) (View, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range viewNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view: %q", s)
}

// Phase is the lifecycle phase of an asynchronous request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// navigation lists the views reachable through NavigateTo from each view.
// PracticeDetail is entered by selecting a problem. A form reaches Result
// only while a request of its topic exists.
var navigation = map[View][]View{
	ViewStart:           {ViewTopics},
	ViewTopics:          {ViewStart, ViewPartialForm, ViewDirectionalForm, ViewPracticeList},
	ViewPartialForm:     {ViewTopics, ViewResult},
	ViewDirectionalForm: {ViewTopics, ViewResult},
	ViewResult:          {ViewTopics, ViewSolution, ViewPartialForm, ViewDirectionalForm},
	ViewSolution:        {ViewResult, ViewTopics},
	ViewPracticeList:    {ViewTopics},
	ViewPracticeDetail:  {ViewPracticeList, ViewTopics},
}

func canNavigate(from, to View) bool {
	for _, v := range navigation[from] {
		if v == to {
			return true
		}
	}
	return false
}

// Targets returns the views reachable from v through NavigateTo.
func Targets(v View) []View {
	return append([]View(nil), navigation[v]...)
}

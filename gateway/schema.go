package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/richinex/calcflow/llm"
	"github.com/richinex/calcflow/model"
)

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

var (
	resultFormat   = mustFormat("derivative_result", &model.Result{})
	feedbackFormat = mustFormat("practice_feedback", &model.PracticeFeedback{})
)

// schemaFor reflects an inline JSON schema for v. Every field of the
// payload types is required.
func schemaFor(v any) (json.RawMessage, error) {
	s := reflector.Reflect(v)
	s.Version = ""
	s.ID = ""
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %T: %w", v, err)
	}
	return raw, nil
}

func mustFormat(name string, v any) *llm.ResponseFormat {
	raw, err := schemaFor(v)
	if err != nil {
		panic(err)
	}
	return llm.NewJSONSchemaFormat(name, raw)
}

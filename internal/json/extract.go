// Package json extracts JSON objects from model output.
//
// Completions may wrap the object in prose or code fences, or stop before
// the closing brace. Extraction tries, in order: the whole text, the span
// from the first '{' to the last '}', and finally a jsonrepair pass over
// the object candidate.
package json

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const previewLen = 100

// Decode extracts the JSON object in response and unmarshals it into T.
func Decode[T any](response string) (T, error) {
	var v T
	raw, err := Extract(response)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return v, nil
}

// Extract returns the JSON object contained in response. Arrays are not
// recognized.
func Extract(response string) (string, error) {
	text := stripFence(response)
	if json.Valid([]byte(text)) {
		return text, nil
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return "", extractError(text)
	}
	candidate := text[start:]
	if end := strings.LastIndex(text, "}"); end > start {
		span := text[start : end+1]
		if json.Valid([]byte(span)) {
			return span, nil
		}
		// An unbalanced span was cut off; repair from the first brace on.
		if strings.Count(span, "{") <= strings.Count(span, "}") {
			candidate = span
		}
	}
	if repaired, ok := repair(candidate); ok {
		return repaired, nil
	}
	return "", extractError(text)
}

// repair accepts a jsonrepair result only if it is still an object.
func repair(candidate string) (string, bool) {
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return "", false
	}
	repaired = strings.TrimSpace(repaired)
	var obj map[string]any
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return "", false
	}
	return repaired, true
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		s = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutSuffix(s, "```"); ok {
		s = strings.TrimSpace(rest)
	}
	return s
}

func extractError(text string) error {
	if len(text) > previewLen {
		text = text[:previewLen] + "..."
	}
	return fmt.Errorf("failed to extract valid JSON from response: %q", text)
}

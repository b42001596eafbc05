package json

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     sample
	}{
		{"pure", `{"name": "test", "value": 42}`, sample{"test", 42}},
		{"prefix", `Here is the result: {"name": "test", "value": 42}`, sample{"test", 42}},
		{"suffix", `{"name": "test", "value": 42} That's the output.`, sample{"test", 42}},
		{"both", `Let me think... {"name": "test", "value": 42} Done!`, sample{"test", 42}},
		{"fenced", "```json\n{\"name\": \"fenced\", \"value\": 7}\n```", sample{"fenced", 7}},
		{"bare fence", "```\n{\"name\": \"bare\", \"value\": 1}\n```", sample{"bare", 1}},
		{"truncated", `{"name": "test", "value": 42`, sample{"test", 42}},
		{"nested truncated", `answer: {"name": "a{b}", "value": 3`, sample{"a{b}", 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[sample](tt.response)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode[sample]("This is just plain text without any JSON.")
	require.ErrorContains(t, err, "failed to extract valid JSON")

	_, err = Decode[sample](`{"name": 42, "value": "forty-two"}`)
	require.ErrorContains(t, err, "failed to unmarshal JSON")
}

func TestExtract(t *testing.T) {
	raw, err := Extract(`prefix {"name": "raw"} suffix`)
	require.NoError(t, err)
	require.Equal(t, `{"name": "raw"}`, raw)
}

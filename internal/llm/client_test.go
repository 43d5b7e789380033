package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"wrapped in prose", "Here is the plan:\n{\"a\":1}\nHope that helps!", `{"a":1}`, true},
		{"nested braces", `result: {"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"no object", "no json here", "", false},
		{"only open brace", "{oops", "", false},
		{"reversed braces", "} {", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

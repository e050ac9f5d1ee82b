package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealsource/pkg/anthropic"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", "Here you go:\n{\"a\": 1}\nHope that helps!", `{"a": 1}`},
		{"no json", "sorry, I cannot help", "sorry, I cannot help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func TestParseJSON(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON("```json\n{\"a\": 7}\n```", &out))
	assert.Equal(t, 7, out.A)
}

func TestParseJSON_Malformed(t *testing.T) {
	var out map[string]string
	err := ParseJSON("not json at all", &out)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not json at all", parseErr.Raw)
}

func TestNewParseError_TruncatesRaw(t *testing.T) {
	raw := strings.Repeat("x", 2000)
	err := NewParseError("too long", raw)
	assert.Len(t, err.Raw, maxRawPreview)
}

func TestExtractText(t *testing.T) {
	resp := &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{
			{Type: "text", Text: "first"},
			{Type: "text", Text: ""},
			{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", ExtractText(resp))
	assert.Empty(t, ExtractText(nil))
}

// Package llm holds the shared defensive parsing used on model output.
// Classifier, extractor, and enricher all feed free-form text through here
// rather than hand-rolling their own fence stripping.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/dealsource/pkg/anthropic"
)

// ParseError reports that model output could not be parsed into the
// requested shape. Raw keeps a bounded prefix of the offending output for
// the diagnostic note.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("llm: parse failure: %s", e.Reason)
}

// maxRawPreview bounds how much raw model output ParseError retains.
const maxRawPreview = 500

// NewParseError builds a ParseError with a truncated raw preview.
func NewParseError(reason, raw string) *ParseError {
	if len(raw) > maxRawPreview {
		raw = raw[:maxRawPreview]
	}
	return &ParseError{Reason: reason, Raw: raw}
}

// CleanJSON extracts a JSON object from text that may be wrapped in one
// level of markdown code fencing or surrounded by prose.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// ParseJSON cleans model output and unmarshals it into v. Returns a
// *ParseError on malformed output; the model is never trusted to follow
// the requested shape.
func ParseJSON(text string, v any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" {
		return NewParseError("empty response", text)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return NewParseError(err.Error(), text)
	}
	return nil
}

// ExtractText concatenates the text blocks of a message response.
func ExtractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

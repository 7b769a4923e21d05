package agent

import (
	"strings"
)

// extractJSON isolates the JSON object or array in a provider reply,
// tolerating surrounding prose and markdown code fences. Returns the
// original text when no JSON payload is found, leaving the unmarshal step
// to produce the validation failure.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		// Skip an optional language hint like "json".
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	var end int
	if text[start] == '{' {
		end = strings.LastIndexByte(text, '}')
	} else {
		end = strings.LastIndexByte(text, ']')
	}
	if end <= start {
		return text
	}
	return text[start : end+1]
}

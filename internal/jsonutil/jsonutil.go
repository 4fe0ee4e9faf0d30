// Package jsonutil recovers JSON objects from LLM output that may be
// wrapped in markdown code fences or surrounded by prose.
package jsonutil

import (
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// ExtractObject returns the best candidate JSON object text from raw
// model output: the raw text if it already looks like an object, the
// body of the first fenced code block, or the outermost {...} span.
// Returns "" when no candidate exists.
func ExtractObject(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	if m := codeBlockRe.FindStringSubmatch(text); len(m) == 2 {
		candidate := strings.TrimSpace(m[1])
		if candidate != "" {
			return candidate
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(text[start : end+1])
	}
	return ""
}

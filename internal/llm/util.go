package llm

import (
	"regexp"
	"strings"
)

// jsonSpan matches from the first opening bracket or brace to the last closing one.
var jsonSpan = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)

// ExtractJSON returns the first bracketed or braced span in text, or "" when none exists.
// Models often wrap JSON in prose or code fences even when told not to.
func ExtractJSON(text string) string {
	return jsonSpan.FindString(CleanJSONBlock(text))
}

// CleanJSONBlock removes markdown code fence wrappers.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Skip a language identifier on the opening fence line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

package openai

import (
	"regexp"
	"strings"
)

var (
	// `{ summary": ...` or `, key_symptoms": ...`
	missingOpenQuote = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)":`)
	// `"a", ]` or `"a", }`
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// stripFences removes a surrounding markdown code fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes the formatting slips small models make most often:
// keys missing their opening quote and trailing commas before a closing
// bracket. Text that is already valid passes through unchanged.
func repairJSON(s string) string {
	s = missingOpenQuote.ReplaceAllString(s, `$1"$2":`)
	return trailingComma.ReplaceAllString(s, "$1")
}

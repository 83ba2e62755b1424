package llm

import (
	"regexp"
	"strings"
)

var (
	reFence         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	reNonFinite     = regexp.MustCompile(`(?i)(:\s*)(-?Infinity|NaN)`)
	reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// CleanModelJSON applies cheap local fixes to a model response before we pay
// for a repair call: markdown fences, text around the object, non-finite
// numbers, trailing commas. It never touches content inside string values
// beyond what the regexes above can reach, so it stays safe for transcripts
// that happen to contain braces.
func CleanModelJSON(raw string) []byte {
	s := strings.TrimSpace(raw)

	if m := reFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	// Keep only the outermost object when the model chats around it.
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	s = reNonFinite.ReplaceAllString(s, "${1}null")
	s = reTrailingComma.ReplaceAllString(s, "$1")

	return []byte(s)
}

package rules

import (
	"strings"
	"unicode"
)

// Normalize reduces free-text input to the lookup form used by alias maps.
// Lenient mode trims and case-folds; strict mode also drops punctuation and
// collapses runs of whitespace. Alias keys are built with the same function
// so normalization never drifts between load and evaluation.
func Normalize(s string, strict bool) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strict {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

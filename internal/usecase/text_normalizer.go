package usecase

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes text for comparison: lower-case, every whitespace run
// collapsed to a single space, no leading or trailing whitespace.
// Applying it twice gives the same result as applying it once.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// stripSeparators removes ASCII spaces and hyphens, the separators printed
// inside EAN codes and batch numbers
func stripSeparators(s string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

// stripWhitespaceAndHyphens removes all whitespace and hyphens from s
func stripWhitespaceAndHyphens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isDigits checks if a string is a non-empty run of ASCII digits
func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

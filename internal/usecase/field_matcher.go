package usecase

import (
	"fmt"
	"strings"

	"github.com/layoutverifier/backend/internal/domain"
)

// MatchOutcome is the answer of the field matcher for one expected value
type MatchOutcome struct {
	Found       bool
	MatchType   domain.MatchType
	MatchedText string
}

var notFound = MatchOutcome{MatchType: domain.MatchNotFound}

// FindValue checks whether expected appears in rawText.
// It normalizes rawText itself; callers checking several values against the
// same text should normalize once and use FindValueNormalized.
func FindValue(expected, rawText string) MatchOutcome {
	if expected == "" || rawText == "" {
		return notFound
	}
	return FindValueNormalized(expected, rawText, Normalize(rawText))
}

// FindValueNormalized checks whether expected appears in rawText, given
// normalizedText == Normalize(rawText).
//
// Strategies are tried in order and the first success wins:
//   - exact: trimmed value is a case-sensitive substring of the raw text
//   - normalized: normalized value is a substring of the normalized text
//   - partial: every word of a multi-word value occurs somewhere in the normalized text
//   - normalized (digits): a digit-only code matches with spaces and hyphens removed on both sides
func FindValueNormalized(expected, rawText, normalizedText string) MatchOutcome {
	if expected == "" || rawText == "" {
		return notFound
	}

	trimmed := strings.TrimSpace(expected)

	if strings.Contains(rawText, trimmed) {
		return MatchOutcome{Found: true, MatchType: domain.MatchExact, MatchedText: trimmed}
	}

	normalizedExpected := Normalize(trimmed)
	if strings.Contains(normalizedText, normalizedExpected) {
		return MatchOutcome{Found: true, MatchType: domain.MatchNormalized, MatchedText: normalizedExpected}
	}

	if words, ok := allWordsPresent(normalizedExpected, normalizedText); ok {
		return MatchOutcome{
			Found:       true,
			MatchType:   domain.MatchPartial,
			MatchedText: fmt.Sprintf("all words found: %v", words),
		}
	}

	if digits := stripSeparators(trimmed); isDigits(digits) {
		if strings.Contains(stripWhitespaceAndHyphens(normalizedText), digits) {
			return MatchOutcome{Found: true, MatchType: domain.MatchNormalized, MatchedText: digits}
		}
	}

	return notFound
}

// allWordsPresent returns the words of a multi-word value when each one
// occurs in text, regardless of order or adjacency
func allWordsPresent(normalizedExpected, text string) ([]string, bool) {
	words := strings.Fields(normalizedExpected)
	if len(words) < 2 {
		return nil, false
	}
	for _, word := range words {
		if !strings.Contains(text, word) {
			return nil, false
		}
	}
	return words, true
}

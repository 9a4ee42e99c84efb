// Package textnorm prepares raw ticket text for vectorization. The same
// normalization must run at training and inference time; any mismatch
// silently degrades every downstream probability.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize joins subject and description, lower-cases the result, drops
// every rune that is not a letter, digit, or whitespace, and collapses
// whitespace runs to single spaces. Empty input yields an empty string,
// never an error.
func Normalize(subject, description string) string {
	combined := strings.ToLower(subject + " " + description)

	var b strings.Builder
	b.Grow(len(combined))
	for _, r := range combined {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits normalized text into terms. Empty text yields a nil slice.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

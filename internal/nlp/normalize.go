// Package nlp holds the text preprocessing shared by the embedders and the
// intent classifiers.
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases raw, strips accents and drops every rune that is not
// a letter, a digit or whitespace. "¡Café, por favor!" becomes "cafe por favor".
func Normalize(raw string) string {
	text := strings.TrimSpace(strings.ToLower(raw))
	if text == "" {
		return ""
	}

	// Transformers keep internal state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, stripped)

	return strings.TrimSpace(cleaned)
}

// Tokens returns the whitespace separated words of the normalized text.
func Tokens(raw string) []string {
	return strings.Fields(Normalize(raw))
}

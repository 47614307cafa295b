// Package fold normalises French text for matching: case and diacritics
// are folded and punctuation separates words.
package fold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String lower-cases s and strips combining marks, so "Plénière" becomes
// "pleniere".
func String(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens splits s into lower-cased words, keeping diacritics.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), isSeparator)
}

// Words splits s into folded words.
func Words(s string) []string {
	return strings.FieldsFunc(String(s), isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// fold maps s to a caseless form for matching. Unlike strings.ToLower it
// applies full Unicode case folding, so "ЁЖ" and "ёж" or "Straße" and
// "STRASSE" compare equal. Runs of whitespace collapse to one space.
func fold(s string) string {
	f := cases.Fold().String(strings.TrimSpace(s))
	if !strings.ContainsFunc(f, unicode.IsSpace) {
		return f
	}
	return strings.Join(strings.Fields(f), " ")
}

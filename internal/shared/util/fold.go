package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics so "Análise" and "analise"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Lower(language.Und).String(strings.TrimSpace(out))
}

// ContainsAny reports whether the folded text contains any of the folded
// keywords.
func ContainsAny(text string, keywords []string) bool {
	folded := Fold(text)
	if folded == "" {
		return false
	}
	for _, kw := range keywords {
		if k := Fold(kw); k != "" && strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

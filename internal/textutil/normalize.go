// Package textutil holds the shared text normalization and similarity
// primitives used by name resolution and duplicate detection.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, trims, strips diacritics and collapses internal
// whitespace. Two spellings of the same name normalize to the same string.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = StripDiacritics(s)
	return CollapseSpaces(s)
}

// StripDiacritics removes combining marks after NFD decomposition, so
// "Nicolò" and "Nicolo" compare equal.
func StripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CollapseSpaces replaces runs of whitespace and control characters with a
// single space and trims the result.
func CollapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Package utils holds small shared helpers with no dependencies on the rest
// of the service.
package utils

import (
	"strings"
	"unicode"
)

// MaxKeyLength caps auto-derived machine keys.
const MaxKeyLength = 40

// Slugify converts arbitrary author text into a lowercase snake_case slug
// capped at MaxKeyLength. "What's your name?" becomes "whats_your_name".
func Slugify(s string) string {
	return slug(s, '_', MaxKeyLength)
}

// URLSlug converts a name into a lowercase hyphenated slug for share URLs.
func URLSlug(s string) string {
	return slug(s, '-', MaxKeyLength)
}

func slug(s string, sep rune, max int) string {
	var b strings.Builder
	lastSep := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSep = false
		case r == '\'' || r == '’':
			// Apostrophes vanish without splitting the word ("what's" -> "whats").
		case !lastSep:
			b.WriteRune(sep)
			lastSep = true
		}
	}
	out := strings.Trim(b.String(), string(sep))
	if len(out) > max {
		out = strings.Trim(out[:max], string(sep))
	}
	return out
}

package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SanitizeTitle reduces an item title to a filename-safe form. The title is
// NFKD-decomposed so accented letters fall back to their ASCII base, then
// everything outside ASCII letters, digits, spaces, and hyphens is dropped.
// Whitespace runs collapse to a single space and the result is trimmed.
func SanitizeTitle(title string) string {
	decomposed := norm.NFKD.String(title)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

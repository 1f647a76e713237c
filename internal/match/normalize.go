package match

import (
	"strings"
	"unicode"
)

// Normalize converts a raw transcript into the canonical form used for
// phrase comparison: lowercase, punctuation stripped, whitespace collapsed
// to single spaces, leading/trailing whitespace removed.
//
// Normalize is total: it succeeds on every input, including the empty
// string, which normalizes to the empty string.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

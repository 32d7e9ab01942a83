package speech

import "strings"

// Normalize lower-cases an utterance, strips punctuation, and collapses
// whitespace so every downstream matcher sees one canonical form.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ':':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a normalized utterance into words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

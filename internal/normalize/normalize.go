// Package normalize turns extracted document text into a canonical form
// shared by every extraction strategy.
package normalize

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// reSpaces matches runs of three or more whitespace characters, including
// Unicode space separators that survive compatibility folding.
var reSpaces = regexp.MustCompile(`[\s\p{Z}]{3,}`)

// invisible drops control characters other than tab/newline/carriage return
// and all format characters (zero-width joiners, soft hyphens, BOMs).
var invisible = runes.Predicate(func(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
})

// Text applies NFKC, removes invisible characters and collapses long
// whitespace runs to exactly two spaces.
func Text(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKC, runes.Remove(invisible))
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform.String only fails on invalid transformer state; fall
		// back to plain NFKC rather than dropping the text.
		out = norm.NFKC.String(s)
	}
	return reSpaces.ReplaceAllString(out, "  ")
}

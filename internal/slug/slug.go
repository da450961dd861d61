package slug

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	disallowed = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns = regexp.MustCompile(`-{2,}`)
	stripMarks = runes.Remove(runes.In(unicode.Mn))
)

// Make turns a category name into its URL slug. Accents are folded and
// other scripts transliterated to ASCII, then whitespace becomes hyphens and
// anything outside [a-z0-9-] is dropped.
func Make(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), name)
	if err != nil {
		folded = name
	}
	folded = unidecode.Unidecode(folded)

	s := strings.ToLower(strings.TrimSpace(folded))
	s = whitespace.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

package outline

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unaccent folds diacritics so "Café" slugs as "cafe".
var unaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug converts a title to its URL path segment: accents folded, lowercased,
// each run of non-alphanumerics collapsed to one hyphen, no leading or
// trailing hyphen. A title with nothing usable slugs as "untitled".
func Slug(title string) string {
	if folded, _, err := transform.String(unaccent, title); err == nil {
		title = folded
	}
	var b strings.Builder
	b.Grow(len(title))
	pending := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// uniqueSlug slugs the title and suffixes -2, -3, ... when an earlier
// sibling in the same group already claimed the slug.
func uniqueSlug(used map[string]int, title string) string {
	s := Slug(title)
	used[s]++
	if n := used[s]; n > 1 {
		return s + "-" + strconv.Itoa(n)
	}
	return s
}

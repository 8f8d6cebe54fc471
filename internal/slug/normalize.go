// Package slug holds the pure parts of slug handling: turning free text into
// a URL-safe candidate and computing the next sequenced variant of a
// candidate from the set of slugs that already conflict with it.
// Nothing here touches storage.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns raw text into a slug candidate.
// Implementations must be safe for concurrent use.
type Normalizer interface {
	Normalize(raw string) string
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(raw string) string

// Normalize calls f(raw).
func (f NormalizerFunc) Normalize(raw string) string {
	return f(raw)
}

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks      = runes.Remove(runes.In(unicode.Mn))
)

// Default is the normalizer used when none is configured.
// It folds diacritics ("Crème Brûlée" → "creme-brulee"), lowercases, and
// replaces every run of other characters with a single hyphen. The output
// never contains "--", so it cannot be mistaken for a sequenced slug.
var Default Normalizer = NormalizerFunc(Normalize)

// Normalize applies the default normalization rules to raw.
// Returns "" when nothing slug-worthy remains.
func Normalize(raw string) string {
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}
	s := strings.ToLower(strings.TrimSpace(folded))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

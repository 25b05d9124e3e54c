package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Noise words are stripped before comparison so "unreleased remix" variants
// of the same track still match their released counterpart. Phrases are
// removed as substrings, single words only as whole tokens.
var (
	noisePhrases = []string{
		"free download",
		"official audio",
	}
	noiseWords = map[string]bool{
		"unreleased": true,
		"bootleg":    true,
		"remix":      true,
		"edit":       true,
		"flip":       true,
		"vip":        true,
	}
)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, folds accents, strips punctuation and noise words,
// and collapses whitespace. The result is the canonical form used for all
// fuzzy comparisons.
func Normalize(s string) string {
	s = strings.ToLower(s)

	if folded, _, err := transform.String(accentFolder, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s = b.String()

	for _, phrase := range noisePhrases {
		s = strings.ReplaceAll(s, phrase, " ")
	}

	kept := make([]string, 0, 8)
	for _, field := range strings.Fields(s) {
		if !noiseWords[field] {
			kept = append(kept, field)
		}
	}

	return strings.Join(kept, " ")
}

// fuzzyMatch reports whether two strings refer to the same thing: after
// normalization, either contains the other. Empty normalized strings never
// match.
func fuzzyMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

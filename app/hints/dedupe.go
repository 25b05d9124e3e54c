package hints

import (
	"sort"
	"strings"
)

// Dedupe collapses hints that name the same artist, title and links,
// keeping the first occurrence. Hints with no identifying fields at all
// (timestamp-only hints) are never collapsed into each other.
func Dedupe(hints []Hint) []Hint {
	seen := make(map[string]bool)
	out := make([]Hint, 0, len(hints))

	for _, h := range hints {
		artist := strings.ToLower(strings.TrimSpace(h.PossibleArtist))
		title := strings.ToLower(strings.TrimSpace(h.PossibleTitle))
		links := strings.ToLower(strings.Join(h.Links, ","))

		if artist == "" && title == "" && links == "" {
			out = append(out, h)
			continue
		}

		key := artist + "\x00" + title + "\x00" + links
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}

	return out
}

// SortByConfidence orders hints high, medium, low, preserving the original
// order within each level.
func SortByConfidence(hints []Hint) {
	sort.SliceStable(hints, func(i, j int) bool {
		return confidenceRank(hints[i].Confidence) < confidenceRank(hints[j].Confidence)
	})
}

// FilterIDRelated keeps the subset worth persisting: direct answers to ID
// requests, hints typed as responses, and anything high-confidence.
func FilterIDRelated(hints []Hint) []Hint {
	out := make([]Hint, 0, len(hints))
	for _, h := range hints {
		if h.IsReplyToIDRequest || h.Type == TypeIDResponse || h.Confidence == ConfidenceHigh {
			out = append(out, h)
		}
	}
	return out
}

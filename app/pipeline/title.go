package pipeline

import (
	"strings"
)

// titleSeparators in preference order: spaced hyphen, en-dash, em-dash.
var titleSeparators = []string{" - ", " – ", " — "}

// SplitArtistTitle derives (artist, title) from a post title. Titles of the
// form "Artist - Track" split on the first separator; anything else keeps
// the whole title and falls back to the uploader as artist.
func SplitArtistTitle(title, uploader string) (string, string) {
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx > 0 {
			artist := strings.TrimSpace(title[:idx])
			rest := strings.TrimSpace(title[idx+len(sep):])
			if artist != "" && rest != "" {
				return artist, rest
			}
		}
	}

	return uploader, strings.TrimSpace(title)
}

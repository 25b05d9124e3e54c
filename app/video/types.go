package video

import (
	"strings"
	"time"
)

// Platform identifies where a raw record was scraped from.
type Platform string

const (
	PlatformTikTok     Platform = "tiktok"
	PlatformInstagram  Platform = "instagram"
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
)

var knownPlatforms = map[Platform]struct{}{
	PlatformTikTok:     {},
	PlatformInstagram:  {},
	PlatformYouTube:    {},
	PlatformSoundCloud: {},
}

// ParsePlatform converts a string into a known Platform.
func ParsePlatform(value string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	_, ok := knownPlatforms[p]
	return p, ok
}

// LongForm reports whether a platform hosts long-form content the fallback
// downloader handles natively, so the CDN path is skipped entirely.
func (p Platform) LongForm() bool {
	return p == PlatformYouTube || p == PlatformSoundCloud
}

// Video is the canonical in-memory shape every raw per-platform record is
// normalized into. ID and Platform are unique within a scrape batch; URL is
// the durable identity used for persistence-layer deduplication.
type Video struct {
	Platform    Platform
	ID          string
	URL         string
	Title       string
	Description string
	Duration    int // seconds
	UploadedAt  time.Time
	Uploader    string

	// Direct CDN addresses, captured opportunistically when the scraper
	// surfaced them. Either may be empty.
	DownloadAddr string
	PlayAddr     string

	Comments []Comment
}

// Comment is one entry of a video's comment thread.
type Comment struct {
	Text    string
	Author  string
	Replies []Comment
}

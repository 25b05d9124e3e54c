package video

import (
	"fmt"
	"log/slog"
	"time"
)

// msThreshold: numeric timestamps above this are taken to be milliseconds.
// Anything in seconds this large would be tens of thousands of years out.
const msThreshold = 1_000_000_000_000

// Normalizer converts heterogeneous per-platform raw records into the
// canonical Video shape.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run normalizes a single raw record. The second return value is false when
// the record lacks any usable identifier; such records are dropped with a
// diagnostic, not an error.
func (n *Normalizer) Run(raw Raw) (Video, bool) {
	var v Video

	switch r := raw.(type) {
	case RawTikTok:
		v = n.normalizeTikTok(r)
	case RawInstagram:
		v = n.normalizeInstagram(r)
	case RawYouTube:
		v = n.normalizeYouTube(r)
	case RawSoundCloud:
		v = n.normalizeSoundCloud(r)
	default:
		slog.Debug("Unknown raw record type, dropping", "type", fmt.Sprintf("%T", raw))
		return Video{}, false
	}

	if v.ID == "" {
		slog.Debug("Record has no usable identifier, dropping", "platform", raw.Platform())
		return Video{}, false
	}

	return v, true
}

func (n *Normalizer) normalizeTikTok(r RawTikTok) Video {
	duration := r.Video.Duration
	if duration == 0 {
		duration = r.Music.Duration
	}

	uploader := coalesce(r.Author.UniqueID, r.Author.Nickname)

	url := r.ShareURL
	if url == "" && r.ID != "" && uploader != "" {
		url = fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", uploader, r.ID)
	}

	return Video{
		Platform:     PlatformTikTok,
		ID:           r.ID,
		URL:          url,
		Title:        r.Desc,
		Description:  r.Music.Title,
		Duration:     duration,
		UploadedAt:   parseTimestamp(r.CreateTime),
		Uploader:     uploader,
		DownloadAddr: r.Video.DownloadAddr,
		PlayAddr:     r.Video.PlayAddr,
		Comments:     normalizeComments(r.Comments),
	}
}

func (n *Normalizer) normalizeInstagram(r RawInstagram) Video {
	duration := int(r.VideoDuration)
	if duration == 0 {
		duration = int(r.MediaDuration)
	}

	var url string
	if r.Shortcode != "" {
		url = fmt.Sprintf("https://www.instagram.com/reel/%s/", r.Shortcode)
	}

	return Video{
		Platform:    PlatformInstagram,
		ID:          r.Shortcode,
		URL:         url,
		Title:       r.Caption,
		Duration:    duration,
		UploadedAt:  parseTimestamp(r.TakenAtTimestamp),
		Uploader:    coalesce(r.Owner.Username, r.Owner.FullName),
		PlayAddr:    r.VideoURL,
		Comments:    normalizeComments(r.Comments),
	}
}

func (n *Normalizer) normalizeYouTube(r RawYouTube) Video {
	var url string
	if r.VideoID != "" {
		url = "https://www.youtube.com/watch?v=" + r.VideoID
	}

	return Video{
		Platform:    PlatformYouTube,
		ID:          r.VideoID,
		URL:         url,
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.LengthSeconds,
		UploadedAt:  parseTimestamp(r.PublishedAt),
		Uploader:    coalesce(r.ChannelName, r.ChannelID),
		Comments:    normalizeComments(r.Comments),
	}
}

func (n *Normalizer) normalizeSoundCloud(r RawSoundCloud) Video {
	duration := r.DurationSeconds
	if duration == 0 && r.DurationMS > 0 {
		duration = r.DurationMS / 1000
	}

	return Video{
		Platform:    PlatformSoundCloud,
		ID:          r.ID,
		URL:         r.PermalinkURL,
		Title:       r.Title,
		Description: r.Description,
		Duration:    duration,
		UploadedAt:  parseTimestamp(r.CreatedAt),
		Uploader:    coalesce(r.User.Username, r.User.Permalink),
		PlayAddr:    r.StreamURL,
		Comments:    normalizeComments(r.Comments),
	}
}

// parseTimestamp interprets a numeric timestamp as seconds or milliseconds
// using a magnitude heuristic.
func parseTimestamp(ts int64) time.Time {
	if ts <= 0 {
		return time.Time{}
	}
	if ts > msThreshold {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}

func normalizeComments(raw []RawComment) []Comment {
	if len(raw) == 0 {
		return nil
	}
	comments := make([]Comment, 0, len(raw))
	for _, rc := range raw {
		comments = append(comments, Comment{
			Text:    rc.Text,
			Author:  rc.User,
			Replies: normalizeComments(rc.Replies),
		})
	}
	return comments
}

// coalesce returns the first non-empty string from the provided values.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

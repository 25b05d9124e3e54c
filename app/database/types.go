package database

import (
	"time"
)

// Track statuses. A track is inserted as pending, moves to uploaded when its
// fingerprint is registered (terminal), or to failed when any stage errors.
const (
	StatusPending  = "pending"
	StatusUploaded = "uploaded"
	StatusFailed   = "failed"
)

// Audio quality tiers derived from duration.
const (
	QualityHigh   = "high"   // >= 180s, likely a full track
	QualityMedium = "medium" // >= 60s, substantial excerpt
	QualityClip   = "clip"   // short-form snippet
)

type Track struct {
	ID                   string // Database UUID
	Title                string
	Artist               string
	SourcePlatform       string
	SourceURL            string // Unique across all platforms
	SourceUser           string
	SourcePostDate       *time.Time
	DurationSeconds      int
	AudioQuality         string
	Status               string
	FingerprintID        string
	FingerprintCreatedAt *time.Time
	RetryCount           int
	Metadata             map[string]interface{}
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type TrackHint struct {
	ID                 string
	TrackID            string
	HintType           string // id_response, direct_mention, link, timestamp_ref
	Confidence         string // high, medium, low
	CommentText        string
	CommentAuthor      string
	PossibleArtist     string
	PossibleTitle      string
	ExtractedLinks     []string
	TimestampRef       string
	IsReplyToIDRequest bool
	CreatedAt          time.Time
}

// QualityTier maps a duration in seconds to an audio quality tier.
func QualityTier(durationSeconds int) string {
	switch {
	case durationSeconds >= 180:
		return QualityHigh
	case durationSeconds >= 60:
		return QualityMedium
	default:
		return QualityClip
	}
}

package database

// TrackStats summarizes track counts per status.
type TrackStats struct {
	Total    int
	Pending  int
	Uploaded int
	Failed   int
}

type TrackRepository interface {
	InsertPending(track Track) (string, error)
	GetTrack(id string) (*Track, error)
	GetTrackBySourceURL(sourceURL string) (*Track, error)
	ListTracks(status string, limit int) ([]Track, error)
	ListUploadedSince(days int) ([]Track, error)
	ListRetryable(maxRetries, limit int) ([]Track, error)

	MarkUploaded(id, fingerprintID string) error
	MarkFailed(id, cause string) error

	GetStats() (TrackStats, error)
}

type HintRepository interface {
	StoreHints(trackID string, hints []TrackHint) error
	GetHints(trackID string) ([]TrackHint, error)
}

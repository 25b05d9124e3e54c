package search

import (
	"fmt"
	"log/slog"

	"github.com/meilisearch/meilisearch-go"

	"github.com/unrlsd/trackhound/app/database"
)

// TrackDoc is the Meilisearch document shape for an ingested track.
type TrackDoc struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	SourcePlatform  string `json:"source_platform"`
	SourceURL       string `json:"source_url"`
	SourceUser      string `json:"source_user"`
	DurationSeconds int    `json:"duration_seconds"`
	AudioQuality    string `json:"audio_quality"`
	Status          string `json:"status"`
	FingerprintID   string `json:"fingerprint_id,omitempty"`
}

// Indexer mirrors uploaded tracks into Meilisearch so hints and tracks are
// searchable by title, artist or uploader. Indexing is auxiliary: failures
// are logged and never surface as pipeline errors.
type Indexer struct {
	client    meilisearch.ServiceManager
	indexName string
}

// NewIndexer connects to Meilisearch and ensures the index exists. Returns
// nil when no host is configured, which callers treat as "indexing off".
func NewIndexer(host, apiKey, indexName string) *Indexer {
	if host == "" {
		return nil
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))

	_, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        indexName,
		PrimaryKey: "id",
	})
	if err != nil {
		slog.Warn("Meilisearch index creation", "index", indexName, "error", err)
	}

	client.Index(indexName).UpdateSearchableAttributes(&[]string{
		"title",
		"artist",
		"source_user",
		"source_url",
	})

	filterableAttrs := []interface{}{"source_platform", "status", "audio_quality"}
	client.Index(indexName).UpdateFilterableAttributes(&filterableAttrs)

	return &Indexer{
		client:    client,
		indexName: indexName,
	}
}

// IndexTrack upserts a track document keyed by its database ID.
func (i *Indexer) IndexTrack(track database.Track) error {
	if i == nil {
		return nil
	}

	doc := TrackDoc{
		ID:              track.ID,
		Title:           track.Title,
		Artist:          track.Artist,
		SourcePlatform:  track.SourcePlatform,
		SourceURL:       track.SourceURL,
		SourceUser:      track.SourceUser,
		DurationSeconds: track.DurationSeconds,
		AudioQuality:    track.AudioQuality,
		Status:          track.Status,
		FingerprintID:   track.FingerprintID,
	}

	_, err := i.client.Index(i.indexName).UpdateDocuments([]TrackDoc{doc}, nil)
	if err != nil {
		return fmt.Errorf("failed to index track %s: %w", track.ID, err)
	}

	return nil
}

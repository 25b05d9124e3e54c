package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/unrlsd/trackhound/app/audio"
	"github.com/unrlsd/trackhound/app/catalog"
	"github.com/unrlsd/trackhound/app/database"
	"github.com/unrlsd/trackhound/app/filter"
	"github.com/unrlsd/trackhound/app/fingerprint"
	"github.com/unrlsd/trackhound/app/hints"
	"github.com/unrlsd/trackhound/app/video"
)

// Summary reports what happened to one batch.
type Summary struct {
	Processed  int
	Uploaded   int
	Failed     int
	Filtered   int
	Duplicates int
	HintsFound int
}

// Collaborator seams, sized to what the runner actually calls.

type Deduper interface {
	IsNew(ctx context.Context, url string) bool
	MarkSeen(ctx context.Context, url string) error
}

type ReleaseChecker interface {
	CheckReleased(ctx context.Context, artist, title string) catalog.CheckResult
	CheckBucketDuplicate(ctx context.Context, repo database.TrackRepository, artist, title string, durationSeconds int) catalog.CheckResult
}

type Acquirer interface {
	Acquire(ctx context.Context, v video.Video) (string, error)
	AcquireFallbackOnly(ctx context.Context, v video.Video) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, v video.Video, artist, audioPath, trackID string) (string, error)
}

type Indexer interface {
	IndexTrack(track database.Track) error
}

// Runner drives one video through normalize, filter, dedupe, acquire and
// upload. No single video's error aborts a batch.
type Runner struct {
	normalizer *video.Normalizer
	filterer   *filter.Filterer
	configs    *filter.ConfigCache
	extractor  *hints.Extractor

	deduper  Deduper
	catalog  ReleaseChecker
	tracks   database.TrackRepository
	hints    database.HintRepository
	acquirer Acquirer
	uploader Uploader
	indexer  Indexer

	maxRetries int
	dryRun     bool
}

func NewRunner(configs *filter.ConfigCache, deduper Deduper, checker ReleaseChecker,
	tracks database.TrackRepository, hintRepo database.HintRepository,
	acquirer Acquirer, uploader Uploader, indexer Indexer,
	maxRetries int, dryRun bool) *Runner {

	return &Runner{
		normalizer: video.NewNormalizer(),
		filterer:   filter.NewFilterer(),
		configs:    configs,
		extractor:  hints.NewExtractor(),
		deduper:    deduper,
		catalog:    checker,
		tracks:     tracks,
		hints:      hintRepo,
		acquirer:   acquirer,
		uploader:   uploader,
		indexer:    indexer,
		maxRetries: maxRetries,
		dryRun:     dryRun,
	}
}

// ProcessBatch runs every record through the pipeline in input order and
// returns the batch summary.
func (r *Runner) ProcessBatch(ctx context.Context, records []video.Raw) Summary {
	var summary Summary
	started := time.Now()

	for _, raw := range records {
		summary.Processed++
		r.processOne(ctx, raw, &summary)
	}

	slog.Info("Batch complete",
		"processed", summary.Processed,
		"uploaded", summary.Uploaded,
		"failed", summary.Failed,
		"filtered", summary.Filtered,
		"duplicates", summary.Duplicates,
		"hints", summary.HintsFound,
		"duration", time.Since(started).Round(time.Millisecond))

	return summary
}

func (r *Runner) processOne(ctx context.Context, raw video.Raw, summary *Summary) {
	v, ok := r.normalizer.Run(raw)
	if !ok {
		return
	}

	result := r.filterer.Run(v, r.configs.GetConfig(v.Platform), time.Now())
	if !result.Passed {
		slog.Debug("Video filtered", "url", v.URL, "reason", result.Reason)
		summary.Filtered++
		return
	}

	if !r.deduper.IsNew(ctx, v.URL) {
		slog.Debug("Video already seen", "url", v.URL)
		summary.Duplicates++
		return
	}

	// The seen cache is best-effort (TTL expiry, fail-open); the store is
	// authoritative. A URL that already has a track record is never
	// re-ingested, whatever state that track is in.
	existing, err := r.tracks.GetTrackBySourceURL(v.URL)
	if err != nil {
		slog.Warn("Failed to look up track by source URL", "url", v.URL, "error", err)
	} else if existing != nil {
		slog.Debug("Track already ingested", "url", v.URL, "track_id", existing.ID, "status", existing.Status)
		summary.Duplicates++
		if err := r.deduper.MarkSeen(ctx, v.URL); err != nil {
			slog.Warn("Failed to mark URL as seen", "url", v.URL, "error", err)
		}
		return
	}

	artist, title := SplitArtistTitle(v.Title, v.Uploader)

	if res := r.catalog.CheckReleased(ctx, artist, title); res.Outcome == catalog.Found {
		slog.Info("Skipping released track", "url", v.URL, "reason", res.Reason)
		summary.Filtered++
		return
	}

	if res := r.catalog.CheckBucketDuplicate(ctx, r.tracks, artist, title, v.Duration); res.Outcome == catalog.Found {
		slog.Info("Skipping bucket duplicate", "url", v.URL, "reason", res.Reason)
		summary.Duplicates++
		return
	}

	if r.dryRun {
		slog.Info("Dry run, would ingest", "url", v.URL, "artist", artist, "title", title)
		return
	}

	trackID, err := r.tracks.InsertPending(r.buildTrack(v, artist, title))
	if err != nil {
		slog.Error("Failed to insert track", "url", v.URL, "error", err)
		summary.Failed++
		return
	}

	if err := r.deduper.MarkSeen(ctx, v.URL); err != nil {
		slog.Warn("Failed to mark URL as seen", "url", v.URL, "error", err)
	}

	summary.HintsFound += r.extractHints(trackID, v)

	audioPath, err := r.acquirer.Acquire(ctx, v)
	if err != nil {
		r.markFailed(trackID, fmt.Sprintf("acquisition failed: %v", err))
		summary.Failed++
		return
	}

	r.finishUpload(ctx, v, artist, audioPath, trackID, summary)
}

// RetryBatch re-attempts failed tracks below the retry cap, oldest first.
// CDN links are assumed expired by now, so acquisition is fallback-only.
func (r *Runner) RetryBatch(ctx context.Context, limit int) Summary {
	var summary Summary

	tracks, err := r.tracks.ListRetryable(r.maxRetries, limit)
	if err != nil {
		slog.Error("Failed to list retryable tracks", "error", err)
		return summary
	}

	for _, track := range tracks {
		summary.Processed++

		v, err := trackToVideo(track)
		if err != nil {
			slog.Error("Cannot rebuild video for retry", "track_id", track.ID, "error", err)
			r.markFailed(track.ID, err.Error())
			summary.Failed++
			continue
		}

		var audioPath string
		if audio.CDNLinksExpireBeforeRetry {
			audioPath, err = r.acquirer.AcquireFallbackOnly(ctx, v)
		} else {
			audioPath, err = r.acquirer.Acquire(ctx, v)
		}
		if err != nil {
			r.markFailed(track.ID, fmt.Sprintf("retry acquisition failed: %v", err))
			summary.Failed++
			continue
		}

		r.finishUpload(ctx, v, track.Artist, audioPath, track.ID, &summary)
	}

	slog.Info("Retry batch complete",
		"processed", summary.Processed,
		"uploaded", summary.Uploaded,
		"failed", summary.Failed)

	return summary
}

func (r *Runner) finishUpload(ctx context.Context, v video.Video, artist, audioPath, trackID string, summary *Summary) {
	fingerprintID, err := r.uploader.Upload(ctx, v, artist, audioPath, trackID)
	if err != nil {
		if errors.Is(err, fingerprint.ErrNotConfigured) {
			slog.Error("Fingerprint service not configured", "track_id", trackID)
		}
		r.markFailed(trackID, fmt.Sprintf("upload failed: %v", err))
		summary.Failed++
		return
	}

	if err := r.tracks.MarkUploaded(trackID, fingerprintID); err != nil {
		slog.Error("Failed to mark track uploaded", "track_id", trackID, "error", err)
		summary.Failed++
		return
	}

	if r.indexer != nil {
		track, err := r.tracks.GetTrack(trackID)
		if err == nil && track != nil {
			if err := r.indexer.IndexTrack(*track); err != nil {
				slog.Warn("Failed to index track", "track_id", trackID, "error", err)
			}
		}
	}

	summary.Uploaded++
}

func (r *Runner) buildTrack(v video.Video, artist, title string) database.Track {
	track := database.Track{
		Title:           title,
		Artist:          artist,
		SourcePlatform:  string(v.Platform),
		SourceURL:       v.URL,
		SourceUser:      v.Uploader,
		DurationSeconds: v.Duration,
		AudioQuality:    database.QualityTier(v.Duration),
		Metadata: map[string]interface{}{
			"source_id":      v.ID,
			"discovered_via": "scrape",
		},
	}

	if !v.UploadedAt.IsZero() {
		postDate := v.UploadedAt
		track.SourcePostDate = &postDate
	}

	return track
}

func (r *Runner) extractHints(trackID string, v video.Video) int {
	if len(v.Comments) == 0 {
		return 0
	}

	found := r.extractor.Extract(v.Comments)
	found = hints.Dedupe(found)
	hints.SortByConfidence(found)
	keep := hints.FilterIDRelated(found)
	if len(keep) == 0 {
		return 0
	}

	records := make([]database.TrackHint, 0, len(keep))
	for _, h := range keep {
		records = append(records, database.TrackHint{
			TrackID:            trackID,
			HintType:           h.Type,
			Confidence:         h.Confidence,
			CommentText:        h.CommentText,
			CommentAuthor:      h.CommentAuthor,
			PossibleArtist:     h.PossibleArtist,
			PossibleTitle:      h.PossibleTitle,
			ExtractedLinks:     h.Links,
			TimestampRef:       h.TimestampRef,
			IsReplyToIDRequest: h.IsReplyToIDRequest,
		})
	}

	if err := r.hints.StoreHints(trackID, records); err != nil {
		slog.Warn("Failed to store hints", "track_id", trackID, "error", err)
		return 0
	}

	return len(records)
}

func (r *Runner) markFailed(trackID, cause string) {
	if err := r.tracks.MarkFailed(trackID, cause); err != nil {
		slog.Error("Failed to record failure", "track_id", trackID, "error", err)
	}
}

// trackToVideo rebuilds the minimal video needed for retry acquisition from
// a stored track record. CDN addresses are deliberately absent.
func trackToVideo(track database.Track) (video.Video, error) {
	platform, ok := video.ParsePlatform(track.SourcePlatform)
	if !ok {
		return video.Video{}, fmt.Errorf("track %s has unknown platform %q", track.ID, track.SourcePlatform)
	}

	sourceID, _ := track.Metadata["source_id"].(string)
	if sourceID == "" {
		return video.Video{}, fmt.Errorf("track %s has no source_id in metadata", track.ID)
	}

	return video.Video{
		Platform: platform,
		ID:       sourceID,
		URL:      track.SourceURL,
		Title:    track.Title,
		Duration: track.DurationSeconds,
		Uploader: track.SourceUser,
	}, nil
}

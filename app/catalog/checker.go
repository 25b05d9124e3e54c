package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unrlsd/trackhound/app/database"
)

type Outcome string

const (
	Found    Outcome = "found"
	NotFound Outcome = "not_found"
	Skipped  Outcome = "skipped"
)

// CheckResult distinguishes "checked, not found" from "could not check".
// Skipped results let the pipeline proceed when the catalog service is
// unreachable or unconfigured.
type CheckResult struct {
	Outcome Outcome
	Reason  string
}

// maxDurationDelta is the strict bound on duration difference, in seconds,
// for two records to count as the same recording.
const maxDurationDelta = 30

// bucketWindowDays bounds how far back the bucket duplicate check looks.
const bucketWindowDays = 90

type candidate struct {
	Artist          string
	Title           string
	DurationSeconds int
}

type searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]candidate, error)
}

// Checker answers whether a track is already commercially released or
// already present in the fingerprint bucket. Both checks fail open.
type Checker struct {
	searcher searcher
}

func NewChecker(s searcher) *Checker {
	return &Checker{searcher: s}
}

// CheckReleased reports whether (artist, title) matches a commercially
// released track in the catalog.
func (c *Checker) CheckReleased(ctx context.Context, artist, title string) CheckResult {
	if c.searcher == nil {
		return CheckResult{Outcome: Skipped, Reason: "catalog credentials not configured"}
	}

	query := artist + " " + title
	candidates, err := c.searcher.SearchTracks(ctx, query, 10)
	if err != nil {
		slog.Warn("Catalog search failed, skipping release check", "query", query, "error", err)
		return CheckResult{Outcome: Skipped, Reason: fmt.Sprintf("catalog search failed: %v", err)}
	}

	for _, cand := range candidates {
		if fuzzyMatch(cand.Title, title) && fuzzyMatch(cand.Artist, artist) {
			return CheckResult{Outcome: Found,
				Reason: fmt.Sprintf("matches released track %q by %q", cand.Title, cand.Artist)}
		}
	}

	return CheckResult{Outcome: NotFound}
}

// CheckBucketDuplicate reports whether a fuzzy-equal track with a close
// duration was already uploaded to the fingerprint bucket recently.
func (c *Checker) CheckBucketDuplicate(ctx context.Context, repo database.TrackRepository,
	artist, title string, durationSeconds int) CheckResult {

	existing, err := repo.ListUploadedSince(bucketWindowDays)
	if err != nil {
		slog.Warn("Bucket duplicate check failed, skipping", "error", err)
		return CheckResult{Outcome: Skipped, Reason: fmt.Sprintf("bucket lookup failed: %v", err)}
	}

	for _, track := range existing {
		if !fuzzyMatch(track.Artist, artist) || !fuzzyMatch(track.Title, title) {
			continue
		}
		delta := track.DurationSeconds - durationSeconds
		if delta < 0 {
			delta = -delta
		}
		if delta < maxDurationDelta {
			return CheckResult{Outcome: Found,
				Reason: fmt.Sprintf("duplicate of bucket track %s (duration delta %ds)", track.ID, delta)}
		}
	}

	return CheckResult{Outcome: NotFound}
}

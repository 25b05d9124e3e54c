package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const trackColumns = `id, title, artist, source_platform, source_url, source_user,
	       source_post_date, duration_seconds, audio_quality, status,
	       COALESCE(fingerprint_id, ''), fingerprint_created_at, retry_count,
	       metadata, created_at, updated_at`

// PgTrackRepository handles database operations for tracks
type PgTrackRepository struct {
	db *DB
}

func NewTrackRepository(db *DB) *PgTrackRepository {
	return &PgTrackRepository{db: db}
}

// InsertPending stores a new track in pending status and returns its ID.
// A conflict on source_url leaves the existing row untouched and returns
// its ID, so reprocessing a post is a no-op.
func (r *PgTrackRepository) InsertPending(track Track) (string, error) {
	metadata, err := json.Marshal(track.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var id string
	err = r.db.QueryRow(`
		INSERT INTO tracks (
			title, artist, source_platform, source_url, source_user,
			source_post_date, duration_seconds, audio_quality, status, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		ON CONFLICT (source_url) DO UPDATE SET updated_at = tracks.updated_at
		RETURNING id
	`, track.Title, track.Artist, track.SourcePlatform, track.SourceURL,
		track.SourceUser, track.SourcePostDate, track.DurationSeconds,
		track.AudioQuality, metadata).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to insert track: %w", err)
	}

	return id, nil
}

func (r *PgTrackRepository) GetTrack(id string) (*Track, error) {
	row := r.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE id = $1`, id)
	return scanTrack(row)
}

func (r *PgTrackRepository) GetTrackBySourceURL(sourceURL string) (*Track, error) {
	row := r.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE source_url = $1`, sourceURL)
	return scanTrack(row)
}

// ListTracks returns tracks filtered by status, newest first. An empty
// status returns tracks of every status.
func (r *PgTrackRepository) ListTracks(status string, limit int) ([]Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// ListUploadedSince returns tracks uploaded within the last N days, used
// for fuzzy duplicate checks against the fingerprint bucket.
func (r *PgTrackRepository) ListUploadedSince(days int) ([]Track, error) {
	rows, err := r.db.Query(`
		SELECT `+trackColumns+`
		FROM tracks
		WHERE status = 'uploaded'
		  AND fingerprint_created_at > NOW() - ($1 * INTERVAL '1 day')
		ORDER BY fingerprint_created_at DESC
	`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploaded tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// ListRetryable returns failed tracks below the retry cap, oldest first.
// Tracks at the cap stay queryable via ListTracks but are never returned
// here.
func (r *PgTrackRepository) ListRetryable(maxRetries, limit int) ([]Track, error) {
	rows, err := r.db.Query(`
		SELECT `+trackColumns+`
		FROM tracks
		WHERE status = 'failed' AND retry_count < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// MarkUploaded transitions a track to uploaded and records its fingerprint.
// Uploaded is terminal.
func (r *PgTrackRepository) MarkUploaded(id, fingerprintID string) error {
	_, err := r.db.Exec(`
		UPDATE tracks
		SET status = 'uploaded', fingerprint_id = $2,
		    fingerprint_created_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, fingerprintID)

	if err != nil {
		return fmt.Errorf("failed to mark track uploaded: %w", err)
	}

	return nil
}

// MarkFailed transitions a track to failed, bumps the retry counter and
// records the cause in metadata.
func (r *PgTrackRepository) MarkFailed(id, cause string) error {
	patch, err := json.Marshal(map[string]interface{}{
		"last_error":    cause,
		"last_error_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal error metadata: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE tracks
		SET status = 'failed', retry_count = retry_count + 1,
		    metadata = metadata || $2::jsonb, updated_at = NOW()
		WHERE id = $1
	`, id, patch)

	if err != nil {
		return fmt.Errorf("failed to mark track failed: %w", err)
	}

	return nil
}

// GetStats returns track counts per status
func (r *PgTrackRepository) GetStats() (TrackStats, error) {
	var stats TrackStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) as pending,
			COALESCE(SUM(CASE WHEN status = 'uploaded' THEN 1 ELSE 0 END), 0) as uploaded,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed
		FROM tracks
	`).Scan(&stats.Total, &stats.Pending, &stats.Uploaded, &stats.Failed)

	if err != nil {
		return TrackStats{}, fmt.Errorf("failed to get track stats: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*Track, error) {
	var track Track
	var metadata []byte

	err := row.Scan(
		&track.ID, &track.Title, &track.Artist, &track.SourcePlatform,
		&track.SourceURL, &track.SourceUser, &track.SourcePostDate,
		&track.DurationSeconds, &track.AudioQuality, &track.Status,
		&track.FingerprintID, &track.FingerprintCreatedAt, &track.RetryCount,
		&metadata, &track.CreatedAt, &track.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track row: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &track.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &track, nil
}

func collectTracks(rows *sql.Rows) ([]Track, error) {
	var tracks []Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating track rows: %w", err)
	}

	return tracks, nil
}

package database

import (
	"fmt"

	"github.com/lib/pq"
)

// PgHintRepository handles database operations for track hints
type PgHintRepository struct {
	db *DB
}

func NewHintRepository(db *DB) *PgHintRepository {
	return &PgHintRepository{db: db}
}

// StoreHints inserts all hints for a track in a single transaction.
func (r *PgHintRepository) StoreHints(trackID string, hints []TrackHint) error {
	if len(hints) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO track_hints (
			track_id, hint_type, confidence, comment_text, comment_author,
			possible_artist, possible_title, extracted_links, timestamp_ref,
			is_reply_to_id_request
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare hint insert: %w", err)
	}
	defer stmt.Close()

	for _, hint := range hints {
		_, err := stmt.Exec(trackID, hint.HintType, hint.Confidence,
			hint.CommentText, hint.CommentAuthor, hint.PossibleArtist,
			hint.PossibleTitle, pq.Array(hint.ExtractedLinks),
			hint.TimestampRef, hint.IsReplyToIDRequest)
		if err != nil {
			return fmt.Errorf("failed to store hint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hints: %w", err)
	}

	return nil
}

// GetHints returns all hints for a track, strongest confidence first.
func (r *PgHintRepository) GetHints(trackID string) ([]TrackHint, error) {
	rows, err := r.db.Query(`
		SELECT id, track_id, hint_type, confidence, comment_text,
		       comment_author, possible_artist, possible_title,
		       COALESCE(extracted_links, '{}'), timestamp_ref,
		       is_reply_to_id_request, created_at
		FROM track_hints
		WHERE track_id = $1
		ORDER BY CASE confidence
			WHEN 'high' THEN 0
			WHEN 'medium' THEN 1
			ELSE 2
		END, created_at ASC
	`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hints: %w", err)
	}
	defer rows.Close()

	var hints []TrackHint
	for rows.Next() {
		var hint TrackHint
		err := rows.Scan(
			&hint.ID, &hint.TrackID, &hint.HintType, &hint.Confidence,
			&hint.CommentText, &hint.CommentAuthor, &hint.PossibleArtist,
			&hint.PossibleTitle, pq.Array(&hint.ExtractedLinks),
			&hint.TimestampRef, &hint.IsReplyToIDRequest, &hint.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hint row: %w", err)
		}
		hints = append(hints, hint)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hint rows: %w", err)
	}

	return hints, nil
}

package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "trackhound:seen:"
	seenTTL   = 7 * 24 * time.Hour
)

// Deduplicator tracks already-processed source URLs in Redis. It is a cheap
// pre-check in front of the database's unique source_url constraint, so an
// unreachable Redis fails open: every URL is treated as new and the
// constraint catches true duplicates.
type Deduplicator struct {
	rdb *redis.Client
}

func NewDeduplicator(rdb *redis.Client) *Deduplicator {
	return &Deduplicator{rdb: rdb}
}

// IsNew reports whether the URL has not been seen within the TTL window.
func (d *Deduplicator) IsNew(ctx context.Context, url string) bool {
	if d.rdb == nil {
		return true
	}

	exists, err := d.rdb.Exists(ctx, keyPrefix+url).Result()
	if err != nil {
		slog.Warn("Dedup check failed, treating URL as new", "url", url, "error", err)
		return true
	}

	return exists == 0
}

// MarkSeen records the URL so subsequent IsNew calls reject it.
func (d *Deduplicator) MarkSeen(ctx context.Context, url string) error {
	if d.rdb == nil {
		return nil
	}

	if _, err := d.rdb.Set(ctx, keyPrefix+url, "1", seenTTL).Result(); err != nil {
		return fmt.Errorf("failed to mark URL as seen: %w", err)
	}

	return nil
}

// Close closes the underlying Redis connection.
func (d *Deduplicator) Close() error {
	if d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}

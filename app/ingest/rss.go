package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/unrlsd/trackhound/app/video"
)

// RSSSource discovers new SoundCloud uploads by polling artist RSS feeds.
// SoundCloud feeds carry an itunes duration and an audio enclosure, which is
// everything the pipeline needs to build a raw record.
type RSSSource struct {
	parser *gofeed.Parser
	urls   []string
}

func NewRSSSource(urls []string, userAgent string) *RSSSource {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &RSSSource{parser: parser, urls: urls}
}

// LoadFeedsFile reads the list of feed URLs from a YAML file.
func LoadFeedsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var feeds struct {
		Feeds []string `yaml:"feeds"`
	}
	if err := yaml.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	return feeds.Feeds, nil
}

// Poll fetches every configured feed and returns its entries as raw
// records. A failing feed is logged and skipped, the rest still apply.
func (s *RSSSource) Poll(ctx context.Context) []video.Raw {
	var records []video.Raw

	for _, url := range s.urls {
		feed, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			slog.Warn("Feed fetch failed", "url", url, "error", err)
			continue
		}

		for _, item := range feed.Items {
			records = append(records, itemToRaw(feed, item))
		}
	}

	return records
}

func itemToRaw(feed *gofeed.Feed, item *gofeed.Item) video.RawSoundCloud {
	raw := video.RawSoundCloud{
		ID:           item.GUID,
		Title:        item.Title,
		Description:  item.Description,
		PermalinkURL: item.Link,
	}

	if raw.ID == "" {
		raw.ID = item.Link
	}
	if item.PublishedParsed != nil {
		raw.CreatedAt = item.PublishedParsed.Unix()
	}
	if item.ITunesExt != nil {
		raw.DurationSeconds = parseDuration(item.ITunesExt.Duration)
	}
	if len(item.Enclosures) > 0 {
		raw.StreamURL = item.Enclosures[0].URL
	}

	raw.User.Username = feed.Title
	if item.Author != nil && item.Author.Name != "" {
		raw.User.Username = item.Author.Name
	}

	return raw
}

// parseDuration accepts plain seconds, mm:ss, or h:mm:ss.
func parseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}

	return total
}

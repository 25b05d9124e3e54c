package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/unrlsd/trackhound/app/video"
)

// CDNLinksExpireBeforeRetry encodes the assumption that platform CDN URLs
// captured at scrape time are expired by the time a retry batch runs, so
// retries go straight to the fallback downloader.
const CDNLinksExpireBeforeRetry = true

// minBodySize is the smallest CDN response body accepted as real media.
// Anything under 1KB is an expired or placeholder link.
const minBodySize = 1024

// Transcoder extracts the audio stream from a downloaded container file.
type Transcoder interface {
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
}

// Fetcher downloads audio for a canonical post URL, used when no CDN link
// works.
type Fetcher interface {
	Download(ctx context.Context, url, outputPath string) error
}

// Acquirer turns a video post into a local mp3, trying direct CDN links
// first and falling back to a general-purpose downloader.
type Acquirer struct {
	OutputDir  string
	UserAgent  string
	HTTPClient *http.Client
	Transcoder Transcoder
	Fetcher    Fetcher
}

// OutputPath returns the deterministic audio location for a video. The path
// doubles as the idempotency key: an existing file is never re-acquired.
func (a *Acquirer) OutputPath(v video.Video) string {
	return filepath.Join(a.OutputDir, "tracks", fmt.Sprintf("%s_%s.mp3", v.Platform, v.ID))
}

// Acquire downloads and transcodes the video's audio, returning the local
// mp3 path. Exactly one of the CDN path or the fallback runs per call.
func (a *Acquirer) Acquire(ctx context.Context, v video.Video) (string, error) {
	outputPath := a.OutputPath(v)

	if _, err := os.Stat(outputPath); err == nil {
		slog.Debug("Audio already acquired", "path", outputPath)
		return outputPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Long-form platforms have no usable direct CDN links, the fallback
	// tool handles them natively.
	if !v.Platform.LongForm() {
		if err := a.acquireFromCDN(ctx, v, outputPath); err == nil {
			return outputPath, nil
		} else if err != errNoCDNLink {
			slog.Debug("CDN acquisition failed, falling back", "url", v.URL, "error", err)
		}
	}

	if a.Fetcher == nil {
		return "", fmt.Errorf("no fallback fetcher configured")
	}

	if err := a.Fetcher.Download(ctx, v.URL, outputPath); err != nil {
		return "", fmt.Errorf("fallback download failed: %w", err)
	}

	return outputPath, nil
}

// AcquireFallbackOnly skips CDN links entirely, used by retry batches.
func (a *Acquirer) AcquireFallbackOnly(ctx context.Context, v video.Video) (string, error) {
	outputPath := a.OutputPath(v)

	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if a.Fetcher == nil {
		return "", fmt.Errorf("no fallback fetcher configured")
	}

	if err := a.Fetcher.Download(ctx, v.URL, outputPath); err != nil {
		return "", fmt.Errorf("fallback download failed: %w", err)
	}

	return outputPath, nil
}

var errNoCDNLink = fmt.Errorf("no CDN link available")

func (a *Acquirer) acquireFromCDN(ctx context.Context, v video.Video, outputPath string) error {
	candidates := []string{}
	if v.DownloadAddr != "" {
		candidates = append(candidates, v.DownloadAddr)
	}
	if v.PlayAddr != "" {
		candidates = append(candidates, v.PlayAddr)
	}
	if len(candidates) == 0 {
		return errNoCDNLink
	}

	// Registered before any write so a partially written container file is
	// cleaned up no matter where the attempt fails.
	tmpPath := outputPath + ".container"
	defer os.Remove(tmpPath)

	var fetchErr error
	fetched := false
	for _, cdnURL := range candidates {
		if fetchErr = a.fetchCDN(ctx, cdnURL, v.Platform, tmpPath); fetchErr == nil {
			fetched = true
			break
		}
	}
	if !fetched {
		return fetchErr
	}

	if a.Transcoder == nil {
		return fmt.Errorf("no transcoder configured")
	}

	if err := a.Transcoder.ExtractAudio(ctx, tmpPath, outputPath); err != nil {
		return fmt.Errorf("transcode failed: %w", err)
	}

	return nil
}

func (a *Acquirer) fetchCDN(ctx context.Context, url string, platform video.Platform, tmpPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build CDN request: %w", err)
	}
	req.Header.Set("User-Agent", a.UserAgent)
	if referer := platformReferer(platform); referer != "" {
		req.Header.Set("Referer", referer)
	}

	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("CDN fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("CDN returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read CDN response: %w", err)
	}

	if len(body) < minBodySize {
		return fmt.Errorf("CDN response too small (%d bytes), link likely expired", len(body))
	}

	if err := os.WriteFile(tmpPath, body, 0644); err != nil {
		return fmt.Errorf("failed to write container file: %w", err)
	}

	return nil
}

func platformReferer(platform video.Platform) string {
	switch platform {
	case video.PlatformTikTok:
		return "https://www.tiktok.com/"
	case video.PlatformInstagram:
		return "https://www.instagram.com/"
	default:
		return ""
	}
}

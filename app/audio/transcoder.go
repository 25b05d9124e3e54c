package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpegTranscoder extracts mp3 audio from a media container by invoking
// ffmpeg.
type FFmpegTranscoder struct {
	BinaryPath string
}

func (t *FFmpegTranscoder) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	binary := t.BinaryPath
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-y",
		outputPath,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}

	return nil
}

// YtDlpFetcher downloads audio for a post URL via yt-dlp, the fallback when
// no direct CDN link works.
type YtDlpFetcher struct {
	BinaryPath string
}

func (f *YtDlpFetcher) Download(ctx context.Context, url, outputPath string) error {
	binary := f.BinaryPath
	if binary == "" {
		binary = "yt-dlp"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"-o", outputPath,
		url,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w: %s", err, lastLine(stderr.String()))
	}

	return nil
}

// lastLine trims tool output to its final non-empty line, which is where
// ffmpeg and yt-dlp put the actual error.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

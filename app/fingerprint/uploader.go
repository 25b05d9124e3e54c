package fingerprint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"github.com/unrlsd/trackhound/app/video"
)

// ErrNotConfigured is returned before any I/O when the fingerprint service
// credentials are missing.
var ErrNotConfigured = errors.New("fingerprint service not configured")

// Uploader registers audio files with the fingerprinting service bucket.
type Uploader struct {
	Host       string
	Bucket     string
	Token      string
	HTTPClient *http.Client
}

type uploadResponse struct {
	Data struct {
		AcrID string `json:"acr_id"`
	} `json:"data"`
	Message string `json:"message"`
}

// Upload sends the audio file with its provenance metadata and returns the
// service-assigned fingerprint ID. artist is the derived artist persisted on
// the track, which may differ from the posting account.
func (u *Uploader) Upload(ctx context.Context, v video.Video, artist, audioPath, trackID string) (string, error) {
	if u.Host == "" || u.Bucket == "" || u.Token == "" {
		return "", ErrNotConfigured
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}

	userDefined, err := json.Marshal(map[string]string{
		"artist":          artist,
		"source_platform": string(v.Platform),
		"source_url":      v.URL,
		"source_id":       v.ID,
		"db_track_id":     trackID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"title":        v.Title,
		"data_type":    "audio",
		"user_defined": string(userDefined),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="track.mp3"`)
	header.Set("Content-Type", "audio/mp3")
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/api/buckets/%s/files", u.Host, u.Bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.Token)

	client := u.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	var parsed uploadResponse
	// Error bodies are not always JSON, a decode failure falls through to
	// the HTTP status handling below.
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Message != "" {
			return "", fmt.Errorf("upload failed: %s", parsed.Message)
		}
		return "", fmt.Errorf("upload failed: HTTP %d", resp.StatusCode)
	}

	if parsed.Data.AcrID == "" {
		return "", fmt.Errorf("upload response missing fingerprint id")
	}

	return parsed.Data.AcrID, nil
}

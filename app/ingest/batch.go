package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/unrlsd/trackhound/app/video"
)

type batchFile struct {
	Platform string            `json:"platform"`
	Records  []json.RawMessage `json:"records"`
}

// ReadBatchFile loads a scraper output file: a JSON object naming the
// platform and carrying its raw records.
func ReadBatchFile(path string) ([]video.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch batchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	platform, ok := video.ParsePlatform(batch.Platform)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q in batch file", batch.Platform)
	}

	records := make([]video.Raw, 0, len(batch.Records))
	for i, raw := range batch.Records {
		record, err := DecodeRaw(platform, raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// DecodeRaw unmarshals one raw record into the platform's payload variant.
func DecodeRaw(platform video.Platform, data []byte) (video.Raw, error) {
	var record video.Raw
	var err error

	switch platform {
	case video.PlatformTikTok:
		var r video.RawTikTok
		err = json.Unmarshal(data, &r)
		record = r
	case video.PlatformInstagram:
		var r video.RawInstagram
		err = json.Unmarshal(data, &r)
		record = r
	case video.PlatformYouTube:
		var r video.RawYouTube
		err = json.Unmarshal(data, &r)
		record = r
	case video.PlatformSoundCloud:
		var r video.RawSoundCloud
		err = json.Unmarshal(data, &r)
		record = r
	default:
		return nil, fmt.Errorf("no payload shape for platform %q", platform)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", platform, err)
	}

	return record, nil
}

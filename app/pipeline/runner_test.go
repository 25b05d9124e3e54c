package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/unrlsd/trackhound/app/catalog"
	"github.com/unrlsd/trackhound/app/database"
	"github.com/unrlsd/trackhound/app/filter"
	"github.com/unrlsd/trackhound/app/video"
)

type memTrackRepo struct {
	tracks    map[string]*database.Track
	nextID    int
	insertErr error
}

func newMemTrackRepo() *memTrackRepo {
	return &memTrackRepo{tracks: make(map[string]*database.Track)}
}

func (m *memTrackRepo) InsertPending(track database.Track) (string, error) {
	if m.insertErr != nil {
		return "", m.insertErr
	}
	for id, t := range m.tracks {
		if t.SourceURL == track.SourceURL {
			return id, nil
		}
	}
	m.nextID++
	id := fmt.Sprintf("track-%d", m.nextID)
	track.ID = id
	track.Status = database.StatusPending
	m.tracks[id] = &track
	return id, nil
}

func (m *memTrackRepo) GetTrack(id string) (*database.Track, error) {
	return m.tracks[id], nil
}

func (m *memTrackRepo) GetTrackBySourceURL(url string) (*database.Track, error) {
	for _, t := range m.tracks {
		if t.SourceURL == url {
			return t, nil
		}
	}
	return nil, nil
}

func (m *memTrackRepo) ListTracks(status string, limit int) ([]database.Track, error) {
	var out []database.Track
	for _, t := range m.tracks {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTrackRepo) ListUploadedSince(days int) ([]database.Track, error) {
	var out []database.Track
	for _, t := range m.tracks {
		if t.Status == database.StatusUploaded {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTrackRepo) ListRetryable(maxRetries, limit int) ([]database.Track, error) {
	var out []database.Track
	for _, t := range m.tracks {
		if t.Status == database.StatusFailed && t.RetryCount < maxRetries {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTrackRepo) MarkUploaded(id, fingerprintID string) error {
	t := m.tracks[id]
	t.Status = database.StatusUploaded
	t.FingerprintID = fingerprintID
	return nil
}

func (m *memTrackRepo) MarkFailed(id, cause string) error {
	t := m.tracks[id]
	t.Status = database.StatusFailed
	t.RetryCount++
	if t.Metadata == nil {
		t.Metadata = map[string]interface{}{}
	}
	t.Metadata["last_error"] = cause
	return nil
}

func (m *memTrackRepo) GetStats() (database.TrackStats, error) {
	return database.TrackStats{}, nil
}

type memHintRepo struct {
	stored map[string][]database.TrackHint
}

func (m *memHintRepo) StoreHints(trackID string, hints []database.TrackHint) error {
	if m.stored == nil {
		m.stored = make(map[string][]database.TrackHint)
	}
	m.stored[trackID] = append(m.stored[trackID], hints...)
	return nil
}

func (m *memHintRepo) GetHints(trackID string) ([]database.TrackHint, error) {
	return m.stored[trackID], nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) IsNew(ctx context.Context, url string) bool { return !f.seen[url] }
func (f *fakeDeduper) MarkSeen(ctx context.Context, url string) error {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[url] = true
	return nil
}

type fakeChecker struct {
	released catalog.CheckResult
	bucket   catalog.CheckResult
}

func (f *fakeChecker) CheckReleased(ctx context.Context, artist, title string) catalog.CheckResult {
	if f.released.Outcome == "" {
		return catalog.CheckResult{Outcome: catalog.NotFound}
	}
	return f.released
}

func (f *fakeChecker) CheckBucketDuplicate(ctx context.Context, repo database.TrackRepository, artist, title string, duration int) catalog.CheckResult {
	if f.bucket.Outcome == "" {
		return catalog.CheckResult{Outcome: catalog.NotFound}
	}
	return f.bucket
}

type fakeAcquirer struct {
	err           error
	acquireCalls  int
	fallbackCalls int
}

func (f *fakeAcquirer) Acquire(ctx context.Context, v video.Video) (string, error) {
	f.acquireCalls++
	return "/tmp/audio.mp3", f.err
}

func (f *fakeAcquirer) AcquireFallbackOnly(ctx context.Context, v video.Video) (string, error) {
	f.fallbackCalls++
	return "/tmp/audio.mp3", f.err
}

type fakeUploader struct {
	err     error
	calls   int
	artists []string
}

func (f *fakeUploader) Upload(ctx context.Context, v video.Video, artist, path, trackID string) (string, error) {
	f.calls++
	f.artists = append(f.artists, artist)
	if f.err != nil {
		return "", f.err
	}
	return "acr-123", nil
}

type testEnv struct {
	repo     *memTrackRepo
	hints    *memHintRepo
	deduper  *fakeDeduper
	checker  *fakeChecker
	acquirer *fakeAcquirer
	uploader *fakeUploader
}

func newTestRunner(t *testing.T, env *testEnv, dryRun bool) *Runner {
	t.Helper()
	configs := filter.NewConfigCache(t.TempDir())
	if err := configs.Run(); err != nil {
		t.Fatal(err)
	}
	return NewRunner(configs, env.deduper, env.checker, env.repo, env.hints,
		env.acquirer, env.uploader, nil, 3, dryRun)
}

func newTestEnv() *testEnv {
	return &testEnv{
		repo:     newMemTrackRepo(),
		hints:    &memHintRepo{},
		deduper:  &fakeDeduper{},
		checker:  &fakeChecker{},
		acquirer: &fakeAcquirer{},
		uploader: &fakeUploader{},
	}
}

func rawRecord(id string) video.Raw {
	r := video.RawTikTok{
		ID:         id,
		Desc:       "DJ Test - Warehouse Anthem",
		CreateTime: 1717000000,
		Comments: []video.RawComment{
			{Text: "ID?", Replies: []video.RawComment{{Text: "it's Chris Stussy - Darkness"}}},
		},
	}
	r.Author.UniqueID = "djtest"
	r.Video.Duration = 95
	r.Video.DownloadAddr = "https://cdn.example/" + id
	return r
}

func TestProcessBatch_HappyPath(t *testing.T) {
	env := newTestEnv()
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Processed != 1 || summary.Uploaded != 1 {
		t.Errorf("Expected 1 processed and uploaded, got %+v", summary)
	}
	if summary.HintsFound != 1 {
		t.Errorf("Expected 1 hint, got %d", summary.HintsFound)
	}

	track, _ := env.repo.GetTrackBySourceURL("https://www.tiktok.com/@djtest/video/1")
	if track == nil {
		t.Fatal("Track not inserted")
	}
	if track.Status != database.StatusUploaded {
		t.Errorf("Expected uploaded status, got %s", track.Status)
	}
	if track.FingerprintID != "acr-123" {
		t.Errorf("Fingerprint not recorded: %q", track.FingerprintID)
	}
	if track.Artist != "DJ Test" || track.Title != "Warehouse Anthem" {
		t.Errorf("Artist/title split wrong: %q / %q", track.Artist, track.Title)
	}
	if track.AudioQuality != database.QualityMedium {
		t.Errorf("Expected medium quality for 95s, got %s", track.AudioQuality)
	}

	stored := env.hints.stored[track.ID]
	if len(stored) != 1 || stored[0].HintType != "id_response" {
		t.Errorf("Expected persisted id_response hint, got %+v", stored)
	}

	// The fingerprint metadata names the derived artist, not the account.
	if len(env.uploader.artists) != 1 || env.uploader.artists[0] != "DJ Test" {
		t.Errorf("Expected derived artist passed to upload, got %v", env.uploader.artists)
	}
}

func TestProcessBatch_SeenURLCountsDuplicate(t *testing.T) {
	env := newTestEnv()
	env.deduper.seen = map[string]bool{"https://www.tiktok.com/@djtest/video/1": true}
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Duplicates != 1 || summary.Uploaded != 0 {
		t.Errorf("Expected 1 duplicate, got %+v", summary)
	}
	if env.acquirer.acquireCalls != 0 {
		t.Error("Duplicate should not reach acquisition")
	}
}

func TestProcessBatch_PersistedURLNotReingested(t *testing.T) {
	env := newTestEnv()
	// Track already at the retry cap; the seen cache has since expired.
	env.repo.tracks["track-1"] = &database.Track{
		ID:             "track-1",
		SourcePlatform: "tiktok",
		SourceURL:      "https://www.tiktok.com/@djtest/video/1",
		Status:         database.StatusFailed,
		RetryCount:     3,
		Metadata:       map[string]interface{}{"source_id": "1"},
	}
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Duplicates != 1 || summary.Uploaded != 0 || summary.Failed != 0 {
		t.Errorf("Expected known URL counted as duplicate, got %+v", summary)
	}
	if env.acquirer.acquireCalls != 0 {
		t.Error("Known URL must not reach acquisition")
	}
	if env.repo.tracks["track-1"].RetryCount != 3 {
		t.Errorf("Retry counter must stay at the cap, got %d", env.repo.tracks["track-1"].RetryCount)
	}
	if !env.deduper.seen["https://www.tiktok.com/@djtest/video/1"] {
		t.Error("Expected the seen cache to be repopulated for the known URL")
	}
}

func TestProcessBatch_UploadedTrackNotReUploaded(t *testing.T) {
	env := newTestEnv()
	env.repo.tracks["track-1"] = &database.Track{
		ID:             "track-1",
		SourcePlatform: "tiktok",
		SourceURL:      "https://www.tiktok.com/@djtest/video/1",
		Status:         database.StatusUploaded,
		FingerprintID:  "acr-old",
		Metadata:       map[string]interface{}{"source_id": "1"},
	}
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Duplicates != 1 {
		t.Errorf("Expected uploaded track counted as duplicate, got %+v", summary)
	}
	if env.uploader.calls != 0 {
		t.Error("Uploaded track must never be sent to the fingerprint service again")
	}
	if env.repo.tracks["track-1"].FingerprintID != "acr-old" {
		t.Error("Existing fingerprint id must stay untouched")
	}
}

func TestProcessBatch_ReleasedTrackFiltered(t *testing.T) {
	env := newTestEnv()
	env.checker.released = catalog.CheckResult{Outcome: catalog.Found, Reason: "already on spotify"}
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Filtered != 1 || summary.Uploaded != 0 {
		t.Errorf("Expected released track filtered, got %+v", summary)
	}
}

func TestProcessBatch_BucketDuplicate(t *testing.T) {
	env := newTestEnv()
	env.checker.bucket = catalog.CheckResult{Outcome: catalog.Found, Reason: "dup"}
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Duplicates != 1 {
		t.Errorf("Expected bucket duplicate, got %+v", summary)
	}
}

func TestProcessBatch_SkippedCheckProceeds(t *testing.T) {
	env := newTestEnv()
	env.checker.released = catalog.CheckResult{Outcome: catalog.Skipped, Reason: "no credentials"}
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Uploaded != 1 {
		t.Errorf("Skipped catalog check must not block ingestion, got %+v", summary)
	}
}

func TestProcessBatch_AcquisitionFailure(t *testing.T) {
	env := newTestEnv()
	env.acquirer.err = errors.New("video unavailable")
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Failed != 1 {
		t.Errorf("Expected 1 failure, got %+v", summary)
	}

	track, _ := env.repo.GetTrackBySourceURL("https://www.tiktok.com/@djtest/video/1")
	if track.Status != database.StatusFailed || track.RetryCount != 1 {
		t.Errorf("Expected failed track with retry 1, got %s/%d", track.Status, track.RetryCount)
	}
	if track.Metadata["last_error"] == nil {
		t.Error("Failure cause not recorded in metadata")
	}
	if env.uploader.calls != 0 {
		t.Error("Upload should not run after acquisition failure")
	}
}

func TestProcessBatch_UploadFailure(t *testing.T) {
	env := newTestEnv()
	env.uploader.err = errors.New("bucket quota exceeded")
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Failed != 1 || summary.Uploaded != 0 {
		t.Errorf("Expected upload failure, got %+v", summary)
	}
}

func TestProcessBatch_ContinuesAfterFailure(t *testing.T) {
	env := newTestEnv()
	env.repo.insertErr = errors.New("db down")
	runner := newTestRunner(t, env, false)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1"), rawRecord("2")})

	if summary.Processed != 2 || summary.Failed != 2 {
		t.Errorf("Batch must continue past failures, got %+v", summary)
	}
}

func TestProcessBatch_DryRun(t *testing.T) {
	env := newTestEnv()
	runner := newTestRunner(t, env, true)

	summary := runner.ProcessBatch(context.Background(), []video.Raw{rawRecord("1")})

	if summary.Uploaded != 0 || summary.Failed != 0 {
		t.Errorf("Dry run should not upload or fail, got %+v", summary)
	}
	if len(env.repo.tracks) != 0 {
		t.Error("Dry run must not insert tracks")
	}
	if env.acquirer.acquireCalls != 0 || env.uploader.calls != 0 {
		t.Error("Dry run must not acquire or upload")
	}
}

func TestRetryBatch_FallbackOnly(t *testing.T) {
	env := newTestEnv()
	env.repo.tracks["track-1"] = &database.Track{
		ID:             "track-1",
		Title:          "Warehouse Anthem",
		Artist:         "DJ Test",
		SourcePlatform: "tiktok",
		SourceURL:      "https://www.tiktok.com/@djtest/video/1",
		Status:         database.StatusFailed,
		RetryCount:     1,
		Metadata:       map[string]interface{}{"source_id": "1"},
	}
	runner := newTestRunner(t, env, false)

	summary := runner.RetryBatch(context.Background(), 10)

	if summary.Uploaded != 1 {
		t.Errorf("Expected retry to upload, got %+v", summary)
	}
	if env.acquirer.fallbackCalls != 1 || env.acquirer.acquireCalls != 0 {
		t.Errorf("Retry must use fallback-only acquisition, got %d/%d",
			env.acquirer.fallbackCalls, env.acquirer.acquireCalls)
	}
}

func TestRetryBatch_RespectsRetryCap(t *testing.T) {
	env := newTestEnv()
	env.repo.tracks["track-1"] = &database.Track{
		ID:             "track-1",
		SourcePlatform: "tiktok",
		SourceURL:      "https://www.tiktok.com/@djtest/video/1",
		Status:         database.StatusFailed,
		RetryCount:     3,
		Metadata:       map[string]interface{}{"source_id": "1"},
	}
	runner := newTestRunner(t, env, false)

	summary := runner.RetryBatch(context.Background(), 10)

	if summary.Processed != 0 {
		t.Errorf("Tracks at the retry cap must not be attempted, got %+v", summary)
	}
	if env.repo.tracks["track-1"].RetryCount != 3 {
		t.Error("Retry counter must stay untouched at the cap")
	}
}

func TestSplitArtistTitle(t *testing.T) {
	tests := []struct {
		title, uploader, wantArtist, wantTitle string
	}{
		{"DJ Test - Warehouse Anthem", "up", "DJ Test", "Warehouse Anthem"},
		{"Bicep – Glue", "up", "Bicep", "Glue"},
		{"Fred again.. — Delilah", "up", "Fred again..", "Delilah"},
		{"just a caption", "uploader", "uploader", "just a caption"},
		{" - broken", "uploader", "uploader", "- broken"},
	}

	for _, tt := range tests {
		artist, title := SplitArtistTitle(tt.title, tt.uploader)
		if artist != tt.wantArtist || title != tt.wantTitle {
			t.Errorf("SplitArtistTitle(%q) = %q/%q, expected %q/%q",
				tt.title, artist, title, tt.wantArtist, tt.wantTitle)
		}
	}
}

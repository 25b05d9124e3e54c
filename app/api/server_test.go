package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unrlsd/trackhound/app/database"
	"github.com/unrlsd/trackhound/app/filter"
)

type stubTrackRepo struct {
	database.TrackRepository
	tracks []database.Track
	stats  database.TrackStats
}

func (s *stubTrackRepo) ListTracks(status string, limit int) ([]database.Track, error) {
	return s.tracks, nil
}

func (s *stubTrackRepo) GetTrack(id string) (*database.Track, error) {
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			return &s.tracks[i], nil
		}
	}
	return nil, nil
}

func (s *stubTrackRepo) GetStats() (database.TrackStats, error) {
	return s.stats, nil
}

type stubHintRepo struct {
	database.HintRepository
	hints []database.TrackHint
}

func (s *stubHintRepo) GetHints(trackID string) ([]database.TrackHint, error) {
	return s.hints, nil
}

func newTestServer(t *testing.T, trackRepo *stubTrackRepo, hintRepo *stubHintRepo) http.Handler {
	t.Helper()
	configs := filter.NewConfigCache(t.TempDir())
	handler := NewHandler(trackRepo, hintRepo, configs, nil, nil, "test")
	return NewServer(handler, "test-key")
}

func doRequest(server http.Handler, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{stats: database.TrackStats{Total: 5}}, &stubHintRepo{})

	w := doRequest(server, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["tracks"] != float64(5) {
		t.Errorf("Expected 5 tracks in health, got %v", body["tracks"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{
		stats: database.TrackStats{Total: 10, Pending: 2, Uploaded: 7, Failed: 1},
	}, &stubHintRepo{})

	w := doRequest(server, "GET", "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["uploaded"] != float64(7) {
		t.Errorf("Unexpected stats body: %v", body)
	}
}

func TestAPIRequiresKey(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{}, &stubHintRepo{})

	if w := doRequest(server, "GET", "/api/tracks", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}
	if w := doRequest(server, "GET", "/api/tracks", "wrong-key"); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
	if w := doRequest(server, "GET", "/api/tracks", "test-key"); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got %d", w.Code)
	}
}

func TestListTracks(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{tracks: []database.Track{
		{ID: "t1", Title: "Darkness", Artist: "Chris Stussy", Status: database.StatusUploaded, FingerprintID: "acr-1"},
	}}, &stubHintRepo{})

	w := doRequest(server, "GET", "/api/tracks?status=uploaded", "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Tracks []map[string]interface{} `json:"tracks"`
		Count  int                      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Count != 1 || body.Tracks[0]["fingerprint_id"] != "acr-1" {
		t.Errorf("Unexpected body: %+v", body)
	}
}

func TestListTracks_BadStatus(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{}, &stubHintRepo{})

	if w := doRequest(server, "GET", "/api/tracks?status=bogus", "test-key"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}
}

func TestGetTrackHints_NotFound(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{}, &stubHintRepo{})

	if w := doRequest(server, "GET", "/api/tracks/missing/hints", "test-key"); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown track, got %d", w.Code)
	}
}

func TestGetTrackHints(t *testing.T) {
	trackRepo := &stubTrackRepo{tracks: []database.Track{{ID: "t1"}}}
	hintRepo := &stubHintRepo{hints: []database.TrackHint{
		{ID: "h1", TrackID: "t1", HintType: "id_response", Confidence: "high"},
	}}
	server := newTestServer(t, trackRepo, hintRepo)

	w := doRequest(server, "GET", "/api/tracks/t1/hints", "test-key")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Hints []map[string]interface{} `json:"hints"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Hints) != 1 || body.Hints[0]["hint_type"] != "id_response" {
		t.Errorf("Unexpected hints: %+v", body.Hints)
	}
}

func TestTriggerRetry_SchedulerDown(t *testing.T) {
	server := newTestServer(t, &stubTrackRepo{}, &stubHintRepo{})

	if w := doRequest(server, "POST", "/api/retry", "test-key"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without scheduler, got %d", w.Code)
	}
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unrlsd/trackhound/app/database"
	"github.com/unrlsd/trackhound/app/filter"
	"github.com/unrlsd/trackhound/app/pipeline"
	"github.com/unrlsd/trackhound/app/tasks"
)

func NewHandler(trackRepo database.TrackRepository, hintRepo database.HintRepository,
	configCache *filter.ConfigCache, runner *pipeline.Runner,
	scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		trackRepo:   trackRepo,
		hintRepo:    hintRepo,
		configCache: configCache,
		runner:      runner,
		scheduler:   scheduler,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if stats, err := h.trackRepo.GetStats(); err == nil {
		health["tracks"] = stats.Total
	}

	health["loaded_filters"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.trackRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    stats.Total,
		"pending":  stats.Pending,
		"uploaded": stats.Uploaded,
		"failed":   stats.Failed,
	})
}

func (h *Handler) APIListTracks(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != database.StatusPending &&
		status != database.StatusUploaded && status != database.StatusFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + status})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	tracks, err := h.trackRepo.ListTracks(status, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_tracks", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(tracks))
	for _, track := range tracks {
		out = append(out, trackInfo(track))
	}

	c.JSON(http.StatusOK, gin.H{"tracks": out, "count": len(out)})
}

func (h *Handler) APIGetTrack(c *gin.Context) {
	track, err := h.trackRepo.GetTrack(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_track", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if track == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	c.JSON(http.StatusOK, trackInfo(*track))
}

func (h *Handler) APIGetTrackHints(c *gin.Context) {
	id := c.Param("id")

	track, err := h.trackRepo.GetTrack(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_track", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if track == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	hints, err := h.hintRepo.GetHints(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_hints", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(hints))
	for _, hint := range hints {
		out = append(out, map[string]interface{}{
			"id":                     hint.ID,
			"hint_type":              hint.HintType,
			"confidence":             hint.Confidence,
			"comment_text":           hint.CommentText,
			"comment_author":         hint.CommentAuthor,
			"possible_artist":        hint.PossibleArtist,
			"possible_title":         hint.PossibleTitle,
			"extracted_links":        hint.ExtractedLinks,
			"timestamp_ref":          hint.TimestampRef,
			"is_reply_to_id_request": hint.IsReplyToIDRequest,
		})
	}

	c.JSON(http.StatusOK, gin.H{"track_id": id, "hints": out, "count": len(out)})
}

func (h *Handler) APITriggerRetry(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	task := tasks.NewRetryFailedTask(h.runner)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue retry task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "retry scheduled", "task_id": task.GetID()})
}

func trackInfo(track database.Track) map[string]interface{} {
	info := map[string]interface{}{
		"id":               track.ID,
		"title":            track.Title,
		"artist":           track.Artist,
		"source_platform":  track.SourcePlatform,
		"source_url":       track.SourceURL,
		"source_user":      track.SourceUser,
		"duration_seconds": track.DurationSeconds,
		"audio_quality":    track.AudioQuality,
		"status":           track.Status,
		"retry_count":      track.RetryCount,
		"created_at":       track.CreatedAt,
		"updated_at":       track.UpdatedAt,
	}

	if track.FingerprintID != "" {
		info["fingerprint_id"] = track.FingerprintID
		info["fingerprint_created_at"] = track.FingerprintCreatedAt
	}
	if track.SourcePostDate != nil {
		info["source_post_date"] = track.SourcePostDate
	}
	if cause, ok := track.Metadata["last_error"]; ok {
		info["last_error"] = cause
	}

	return info
}

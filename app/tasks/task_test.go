package tasks

import (
	"testing"
	"time"
)

func TestTask_RetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeProcessBatch, "batch.json")

	if task.GetRetryCount() != 0 {
		t.Errorf("New task should have 0 retries, got %d", task.GetRetryCount())
	}
	if !task.CanRetry() {
		t.Error("New task should be retryable")
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Errorf("Task at %d retries should not be retryable", task.GetRetryCount())
	}
}

func TestTask_UniqueIDs(t *testing.T) {
	a := NewTask(TaskTypePollFeeds, "rss")
	b := NewTask(TaskTypePollFeeds, "rss")

	if a.GetID() == b.GetID() {
		t.Error("Tasks should get unique IDs")
	}
}

func TestTask_Duration(t *testing.T) {
	task := NewTask(TaskTypeRetryFailed, "retry")

	if task.GetDuration() != 0 {
		t.Error("Unstarted task should report zero duration")
	}

	task.Start()
	time.Sleep(5 * time.Millisecond)

	if task.GetDuration() <= 0 {
		t.Error("Started task should report elapsed duration")
	}
}

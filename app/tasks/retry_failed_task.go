package tasks

import (
	"context"
	"log/slog"

	"github.com/unrlsd/trackhound/app/pipeline"
)

const retryBatchLimit = 50

// RetryFailedTask sweeps failed tracks below the retry cap and re-runs them
// through fallback acquisition and upload.
type RetryFailedTask struct {
	Task
	runner *pipeline.Runner
}

func NewRetryFailedTask(runner *pipeline.Runner) *RetryFailedTask {
	return &RetryFailedTask{
		Task:   NewTask(TaskTypeRetryFailed, "retry"),
		runner: runner,
	}
}

func (t *RetryFailedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	summary := t.runner.RetryBatch(ctx, retryBatchLimit)

	slog.Info("Task completed",
		"type", "RetryFailed",
		"duration", t.GetDuration(),
		"processed", summary.Processed,
		"uploaded", summary.Uploaded,
		"failed", summary.Failed)

	return nil
}

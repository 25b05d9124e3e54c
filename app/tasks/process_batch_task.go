package tasks

import (
	"context"
	"log/slog"

	"github.com/unrlsd/trackhound/app/pipeline"
	"github.com/unrlsd/trackhound/app/video"
)

type ProcessBatchTask struct {
	Task
	runner  *pipeline.Runner
	records []video.Raw
}

func NewProcessBatchTask(source string, runner *pipeline.Runner, records []video.Raw) *ProcessBatchTask {
	return &ProcessBatchTask{
		Task:    NewTask(TaskTypeProcessBatch, source),
		runner:  runner,
		records: records,
	}
}

func (t *ProcessBatchTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	summary := t.runner.ProcessBatch(ctx, t.records)

	slog.Info("Task completed",
		"type", "ProcessBatch",
		"source", t.Source,
		"duration", t.GetDuration(),
		"processed", summary.Processed,
		"uploaded", summary.Uploaded,
		"failed", summary.Failed)

	return nil
}

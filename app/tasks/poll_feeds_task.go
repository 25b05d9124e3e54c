package tasks

import (
	"context"
	"log/slog"

	"github.com/unrlsd/trackhound/app/ingest"
	"github.com/unrlsd/trackhound/app/pipeline"
)

// PollFeedsTask fetches the configured RSS feeds and hands any discovered
// uploads to the pipeline queue as a batch task.
type PollFeedsTask struct {
	Task
	source  *ingest.RSSSource
	runner  *pipeline.Runner
	enqueue func(TaskInterface) error
}

func NewPollFeedsTask(source *ingest.RSSSource, runner *pipeline.Runner, enqueue func(TaskInterface) error) *PollFeedsTask {
	return &PollFeedsTask{
		Task:    NewTask(TaskTypePollFeeds, "rss"),
		source:  source,
		runner:  runner,
		enqueue: enqueue,
	}
}

func (t *PollFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records := t.source.Poll(ctx)
	if len(records) == 0 {
		slog.Debug("No feed entries discovered")
		return nil
	}

	slog.Info("Task completed",
		"type", "PollFeeds",
		"duration", t.GetDuration(),
		"discovered", len(records))

	return t.enqueue(NewProcessBatchTask("rss", t.runner, records))
}

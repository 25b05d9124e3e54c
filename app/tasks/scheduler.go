package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/unrlsd/trackhound/app/cfg"
	"github.com/unrlsd/trackhound/app/ingest"
	"github.com/unrlsd/trackhound/app/pipeline"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	runner        *pipeline.Runner
	rssSource     *ingest.RSSSource
	interval      time.Duration
	retryInterval time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
	pipelineQueue chan TaskInterface
}

func NewScheduler(runner *pipeline.Runner, rssSource *ingest.RSSSource) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		runner:        runner,
		rssSource:     rssSource,
		interval:      time.Duration(c.SchedulerInterval) * time.Second,
		retryInterval: time.Duration(c.RetryInterval) * time.Second,
		workerCount:   c.WorkerCount,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
		pipelineQueue: make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i, s.taskQueue)
	}

	// Pipeline tasks get one dedicated worker: acquisition and upload for
	// different videos never run concurrently, preserving input order.
	s.wg.Add(1)
	go s.worker(s.workerCount, s.pipelineQueue)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		pollTicker := time.NewTicker(s.interval)
		defer pollTicker.Stop()
		retryTicker := time.NewTicker(s.retryInterval)
		defer retryTicker.Stop()

		s.enqueuePollTask()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-pollTicker.C:
				s.enqueuePollTask()
			case <-retryTicker.C:
				if err := s.EnqueueTask(NewRetryFailedTask(s.runner)); err != nil {
					slog.Warn("Failed to enqueue RetryFailedTask", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
	close(s.pipelineQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	queue := s.taskQueue
	if task.GetType() == TaskTypeProcessBatch {
		queue = s.pipelineQueue
	}

	select {
	case queue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueuePollTask() {
	if s.rssSource == nil {
		return
	}
	if err := s.EnqueueTask(NewPollFeedsTask(s.rssSource, s.runner, s.EnqueueTask)); err != nil {
		slog.Warn("Failed to enqueue PollFeedsTask", "error", err)
	}
}

func (s *Scheduler) worker(id int, queue chan TaskInterface) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-queue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSource(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}

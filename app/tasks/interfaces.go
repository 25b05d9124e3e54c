package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing in serve
// mode. Pipeline tasks run on a dedicated worker so videos are processed one
// at a time; auxiliary tasks share the worker pool.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

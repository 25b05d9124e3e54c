package api

import (
	"github.com/unrlsd/trackhound/app/database"
	"github.com/unrlsd/trackhound/app/filter"
	"github.com/unrlsd/trackhound/app/pipeline"
	"github.com/unrlsd/trackhound/app/tasks"
)

type Handler struct {
	trackRepo   database.TrackRepository
	hintRepo    database.HintRepository
	configCache *filter.ConfigCache
	runner      *pipeline.Runner
	scheduler   tasks.TaskSchedulerInterface
	version     string
}

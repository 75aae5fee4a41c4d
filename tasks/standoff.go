package tasks

import (
	"context"

	"text2phenotype.com/standoff/redis"
	"text2phenotype.com/standoff/utils/maps"
)

const StandoffDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// StandoffTask describes one document whose standoff files wait to be
// turned into an annotation graph.
type StandoffTask struct {
	maps.BaseDocument
	DocID         string               `json:"document_id"`
	JobID         string               `json:"job_id"`
	Config        string               `json:"config"`
	ThemeFileKey  string               `json:"theme_file_key"`
	EventFileKeys []string             `json:"event_file_keys"`
	TaskStatuses  StandoffTaskStatuses `json:"task_statuses"`
}

type StandoffTaskStatuses struct {
	Standoff StandoffTaskInfo `json:"standoff"`
}

type StandoffTaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	Fingerprint    string     `json:"fingerprint"`
	ErrorClass     string     `json:"error_class"`
	ErrorMessages  []string   `json:"error_messages"`
}

type StandoffTasks struct {
	client redis.Client
}

func (tasks StandoffTasks) Get(ctx context.Context, redisKey string) (*StandoffTask, error) {
	var task StandoffTask
	if err := tasks.client.GetPartialDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks StandoffTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *StandoffTask)) error {
	var task StandoffTask
	return tasks.client.UpdatePartialDocument(ctx, redisKey, &task, updateFunc)
}

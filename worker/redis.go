package worker

import (
	"fmt"

	"text2phenotype.com/standoff/tasks"
)

type redisTransactions interface {
	getStandoffTask(task *Task) (*tasks.StandoffTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getDocTask(task *Task) (*tasks.DocumentTaskCached, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Standoff.Update(task.ctx, task.redisKey, func(standoffTask *tasks.StandoffTask) {
		info := &standoffTask.TaskStatuses.Standoff
		info.Status = tasks.TaskStatusStarted
		info.Attempts++
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
		info.ErrorClass = ""
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Standoff.Update(task.ctx, task.redisKey, func(standoffTask *tasks.StandoffTask) {
		info := &standoffTask.TaskStatuses.Standoff
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts++
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Documents.Update(task.ctx, task.standoffTask.DocID, func(docTask *tasks.DocumentTask) {
		docTask.FailedTasks = append(docTask.FailedTasks, senderName)
		if docTask.FailedDocuments == nil {
			docTask.FailedDocuments = map[string][]string{}
		}
		docTask.FailedDocuments[task.redisKey] = append(docTask.FailedDocuments[task.redisKey], senderName)
	})
	if err != nil {
		return err
	}
	return wrapper.tasksClient.Standoff.Update(task.ctx, task.redisKey, func(standoffTask *tasks.StandoffTask) {
		info := &standoffTask.TaskStatuses.Standoff
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts++
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d )", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Standoff.Update(task.ctx, task.redisKey, func(standoffTask *tasks.StandoffTask) {
		info := &standoffTask.TaskStatuses.Standoff
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorClass = task.errorClass
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Standoff.Update(task.ctx, task.redisKey, func(standoffTask *tasks.StandoffTask) {
		info := &standoffTask.TaskStatuses.Standoff
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
		info.Fingerprint = task.fingerprint
	})
}

func (wrapper *redisClientWrapper) getStandoffTask(task *Task) (*tasks.StandoffTask, error) {
	return wrapper.tasksClient.Standoff.Get(task.ctx, task.redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.ctx, task.standoffTask.JobID)
}

func (wrapper *redisClientWrapper) getDocTask(task *Task) (*tasks.DocumentTaskCached, error) {
	return wrapper.tasksClient.Documents.GetCached(task.ctx, task.standoffTask.DocID)
}

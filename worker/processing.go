package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/standoff/metrics"
	"text2phenotype.com/standoff/standoff"
	"text2phenotype.com/standoff/tasks"
	"text2phenotype.com/standoff/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	ctx          context.Context
	delivery     *amqp.Delivery
	standoffTask *tasks.StandoffTask
	message      *Message
	redisKey     string
	fingerprint  string
	errorClass   string
	fdlLogger    *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	rejectLogger := worker.fdlLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(delivery)
	if err != nil {
		rejectLogger.Err(err).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.fdlLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.fdlLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	taskLogger := worker.fdlLogger.With().Str("tid", message.RedisKey).Logger()
	task := Task{
		ctx:       context.Background(),
		delivery:  delivery,
		redisKey:  message.RedisKey,
		message:   &message,
		fdlLogger: &taskLogger,
	}
	standoffTask, err := worker.redis.getStandoffTask(&task)
	if err != nil {
		return nil, fmt.Errorf("failed to query standoff task for message, got error %w", err)
	}
	task.standoffTask = standoffTask
	taskLogger = taskLogger.With().Str("doc_id", standoffTask.DocID).Logger()
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.fdlLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.runLoader(task); err != nil {
		task.errorClass = standoff.ErrorClass(err)
		task.fdlLogger.Err(err).Str("error_class", task.errorClass).Msg("Got error while building annotation graph")
		return worker.redis.onTaskFailedWithError(task, err)
	}
	task.fdlLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runLoader(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	info := task.standoffTask
	task.fdlLogger.Info().Msgf("Processing message from RMQ, attempt # %d", info.TaskStatuses.Standoff.Attempts)

	load, ok := worker.loaders.Get(info.Config)
	if !ok {
		return fmt.Errorf("unknown configuration %q", info.Config)
	}
	doc := standoff.Document{
		ID:     info.DocID,
		Themes: worker.s3Source(info.ThemeFileKey),
	}
	for _, key := range info.EventFileKeys {
		doc.Events = append(doc.Events, worker.s3Source(key))
	}

	graph, err := worker.metrics.Build(metrics.SourceWorker, load, doc)
	if err != nil {
		return err
	}
	resp := graph.Export()
	result, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	task.fingerprint = resp.Fingerprint
	task.fdlLogger.Info().Str("fingerprint", resp.Fingerprint).Msg("Built annotation graph, saving results to s3")
	if err = worker.s3.saveResultsFile(task, result); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

// s3Source defers the download until the loader opens the stream.
func (worker *Worker) s3Source(key string) standoff.Source {
	return standoff.Source{
		Name: key,
		Open: func() (io.ReadCloser, error) {
			return worker.s3.openFile(key)
		},
	}
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.standoffTask.TaskStatuses.Standoff
	taskLogger := task.fdlLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	jobTask, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for standoff task")
		return false, err
	}
	if jobTask.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.redis.onTaskCancelled(task)
	}
	if jobTask.StopDocumentsOnFailure {
		docTask, err := worker.redis.getDocTask(task)
		if err != nil {
			return false, err
		}
		if docTask == nil {
			return false, fmt.Errorf("document task not found")
		}
		if len(docTask.FailedTasks) > 0 {
			failedTask := docTask.FailedTasks[0]
			taskLogger.Info().Msgf("Task is not required because the \"%s\" already completed failure "+
				"and document won't be processed successfully. Sending back to Sequencer.", failedTask)
			return false, worker.redis.onTaskCancelled(
				task,
				fmt.Sprintf(
					"Task was marked as \"%s\" because of the current document has failed "+
						"in the \"%s\" worker and won't be processed successfully.",
					tasks.TaskStatusCanceled,
					failedTask,
				),
			)
		}
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Standoff task has exceeded retries. Sending back to Sequencer.")
		return false, worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
	}
	return true, nil
}

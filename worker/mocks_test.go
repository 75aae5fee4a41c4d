package worker

import (
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/standoff/standoff"
	"text2phenotype.com/standoff/tasks"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type loaderMock struct {
	config loaderMockConfig
	calls  loaderCall
}

type loaderMockConfig struct {
	fail bool
}

type loaderCall struct {
	loader bool
}

// load opens every source like the real loader, so s3 failures surface.
func (mock *loaderMock) load(doc standoff.Document) (*standoff.Graph, error) {
	mock.calls.loader = true
	for _, src := range append([]standoff.Source{doc.Themes}, doc.Events...) {
		r, err := src.Open()
		if err != nil {
			return nil, &standoff.ReadError{Source: src.Name, Err: err}
		}
		_ = r.Close()
	}
	if mock.config.fail {
		return nil, &standoff.LineError{Source: doc.Themes.Name, Line: 1, Err: standoff.ErrUnresolvedReference}
	}
	return &standoff.Graph{DocID: doc.ID}, nil
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	failed *Task
}

type redisMockConfig struct {
	getStandoffTask       withValue
	getJobTask            withValue
	getDocTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getStandoffTask       bool
	getJobTask            bool
	getDocTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  []byte
}

type s3MockConfig struct {
	openFile        withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	openFile        bool
	saveResultsFile bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func (mock *redisMock) getStandoffTask(task *Task) (*tasks.StandoffTask, error) {
	mock.calls.getStandoffTask = true
	if mock.config.getStandoffTask.fail {
		return nil, errors.New("failed to get standoff task")
	}
	if standoffTask, ok := mock.config.getStandoffTask.returnedValue.(tasks.StandoffTask); ok {
		return &standoffTask, nil
	}
	return &tasks.StandoffTask{DocID: "doc", ThemeFileKey: "doc.a1", EventFileKeys: []string{"doc.a2"}}, nil
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	if jobTask, ok := mock.config.getJobTask.returnedValue.(tasks.JobTask); ok {
		return &jobTask, nil
	}
	return &tasks.JobTask{}, nil
}

func (mock *redisMock) getDocTask(task *Task) (*tasks.DocumentTaskCached, error) {
	mock.calls.getDocTask = true
	if mock.config.getDocTask.fail {
		return nil, errors.New("failed to get doc task")
	}
	if docTask, ok := mock.config.getDocTask.returnedValue.(tasks.DocumentTaskCached); ok {
		return &docTask, nil
	}
	return &tasks.DocumentTaskCached{}, nil
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update standoff task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update standoff task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update standoff task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	mock.failed = task
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update standoff task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update standoff task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, fdlLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(task *Task, message Message) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

// openFile serves returnedValue when it is a map of key to file contents.
func (mock *s3Mock) openFile(key string) (io.ReadCloser, error) {
	mock.calls.openFile = true
	if mock.config.openFile.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	if files, ok := mock.config.openFile.returnedValue.(map[string]string); ok {
		content, found := files[key]
		if !found {
			return nil, errors.New("mock: no such key " + key)
		}
		return io.NopCloser(strings.NewReader(content)), nil
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (mock *s3Mock) saveResultsFile(task *Task, result []byte) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	mock.saved = result
	return nil
}

package worker

import (
	"bytes"
	"io"

	"text2phenotype.com/standoff/s3client"
)

type s3Transactions interface {
	openFile(key string) (io.ReadCloser, error)
	saveResultsFile(task *Task, result []byte) error
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) openFile(key string) (io.ReadCloser, error) {
	data, err := wrapper.s3Client.Download(key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (wrapper *s3ClientWrapper) saveResultsFile(task *Task, result []byte) error {
	return wrapper.s3Client.Upload(result, getResultsFileKey(task), "application/json")
}

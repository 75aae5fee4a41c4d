package standoff

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLine       = errors.New("malformed line")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrDuplicateID         = errors.New("duplicate standoff id")
	ErrExhausted           = errors.New("sequence is exhausted")
)

const (
	ErrorClassMalformed  = "malformed"
	ErrorClassUnresolved = "unresolved"
	ErrorClassDuplicate  = "duplicate"
	ErrorClassIO         = "io"
	ErrorClassOther      = "other"
)

// LineError locates a parse failure in its source stream.
type LineError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v (line %q)", e.Source, e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ReadError wraps an I/O failure of an underlying stream.
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedLine, fmt.Sprintf(format, args...))
}

func unresolved(role string, id string) error {
	return fmt.Errorf("%w: %s %s is absent from the id map", ErrUnresolvedReference, role, id)
}

// ErrorClass names the failure category of a loader error.
func ErrorClass(err error) string {
	var readErr *ReadError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedLine):
		return ErrorClassMalformed
	case errors.Is(err, ErrUnresolvedReference):
		return ErrorClassUnresolved
	case errors.Is(err, ErrDuplicateID):
		return ErrorClassDuplicate
	case errors.As(err, &readErr):
		return ErrorClassIO
	}
	return ErrorClassOther
}

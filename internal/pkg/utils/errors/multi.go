package errors

import (
	"fmt"
	"sync"
)

// MultiError collects errors, it is safe for concurrent use.
type MultiError interface {
	error
	Len() int
	Unwrap() []error
	StackTrace() StackTrace
	WrappedErrors() []error
	ErrorOrNil() error
	Append(errs ...error)
	AppendNested(err error) NestedError
	AppendWithPrefix(err error, prefix string)
	AppendWithPrefixf(err error, format string, a ...any)
}

type multiErrorGetter interface {
	WrappedErrors() []error
}

type multiError struct {
	lock   *sync.Mutex
	errors []error
	trace  StackTrace
}

func NewMultiError() MultiError {
	return &multiError{lock: &sync.Mutex{}, trace: callers()}
}

func NewMultiErrorNoTrace() MultiError {
	return &multiError{lock: &sync.Mutex{}}
}

func (e *multiError) Error() string {
	return Format(e)
}

func (e *multiError) Len() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.errors)
}

func (e *multiError) Unwrap() []error {
	return e.WrappedErrors()
}

func (e *multiError) StackTrace() StackTrace {
	return e.trace
}

func (e *multiError) WrappedErrors() []error {
	e.lock.Lock()
	defer e.lock.Unlock()
	out := make([]error, len(e.errors))
	copy(out, e.errors)
	return out
}

// ErrorOrNil returns nil if there is no error.
// A single error is returned as is, without the multi-error wrapper.
func (e *multiError) ErrorOrNil() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	switch len(e.errors) {
	case 0:
		return nil
	case 1:
		return e.errors[0]
	default:
		return e
	}
}

// Append errors, nil values are skipped, nested multi-errors are flattened.
func (e *multiError) Append(errs ...error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, err := range errs {
		if err == nil {
			continue
		}
		if v, ok := err.(*multiError); ok { // nolint: errorlint
			e.errors = append(e.errors, v.WrappedErrors()...)
		} else {
			e.errors = append(e.errors, err)
		}
	}
}

func (e *multiError) AppendNested(err error) NestedError {
	nested := NewNestedError(err)
	e.Append(nested)
	return nested
}

func (e *multiError) AppendWithPrefix(err error, prefix string) {
	if err == nil {
		return
	}
	e.Append(PrefixError(err, prefix))
}

func (e *multiError) AppendWithPrefixf(err error, format string, a ...any) {
	if err == nil {
		return
	}
	e.Append(PrefixError(err, fmt.Sprintf(format, a...)))
}

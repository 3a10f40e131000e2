// Package errors extends the standard errors package with stack traces,
// prefixed (nested) errors and multi-errors, see Format.
package errors

import (
	"errors"
	"fmt"
)

type withStack struct {
	error
	trace StackTrace
}

type wrappedError struct {
	msg   string
	cause error
	trace StackTrace
}

// New creates a new error with a stack trace.
func New(message string) error {
	return &withStack{error: errors.New(message), trace: callers()}
}

// Errorf creates a new formatted error with a stack trace, the %w verb is supported.
func Errorf(format string, a ...any) error {
	return &withStack{error: fmt.Errorf(format, a...), trace: callers()}
}

// Wrap returns a new error with the message, the cause is available via Unwrap.
// The cause message is not part of the Error() output, use Format with FormatWithUnwrap to print it.
func Wrap(cause error, message string) error {
	return &wrappedError{msg: message, cause: cause, trace: callers()}
}

// Wrapf is a formatted version of the Wrap.
func Wrapf(cause error, format string, a ...any) error {
	return &wrappedError{msg: fmt.Sprintf(format, a...), cause: cause, trace: callers()}
}

// WithStack adds a stack trace to the error, if it is not already present.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var tracer stackTracer
	if errors.As(err, &tracer) {
		return err
	}
	return &withStack{error: err, trace: callers()}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func (e *withStack) Unwrap() error {
	return e.error
}

func (e *withStack) StackTrace() StackTrace {
	return e.trace
}

func (e *wrappedError) Error() string {
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

func (e *wrappedError) StackTrace() StackTrace {
	return e.trace
}

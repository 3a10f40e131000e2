package errors

import (
	"net/http"
)

type ServiceUnavailableError struct {
	err error
}

func NewServiceUnavailableError(err error) ServiceUnavailableError {
	return ServiceUnavailableError{err: err}
}

func (ServiceUnavailableError) ErrorName() string {
	return "serviceUnavailable"
}

func (e ServiceUnavailableError) StatusCode() int {
	return http.StatusServiceUnavailable
}

func (e ServiceUnavailableError) Unwrap() error {
	return e.err
}

func (e ServiceUnavailableError) Error() string {
	return e.err.Error()
}

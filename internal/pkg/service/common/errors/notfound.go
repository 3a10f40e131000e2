package errors

import (
	"fmt"
	"net/http"
)

type ResourceNotFoundError struct {
	what string
	key  string
	in   string
	err  error
}

func NewResourceNotFoundError(what, key, in string) ResourceNotFoundError {
	return ResourceNotFoundError{what: what, key: key, in: in}
}

// Wrap sets the underlying error.
func (e ResourceNotFoundError) Wrap(err error) ResourceNotFoundError {
	e.err = err
	return e
}

func (e ResourceNotFoundError) ErrorName() string {
	return fmt.Sprintf("%sNotFound", e.what)
}

func (e ResourceNotFoundError) StatusCode() int {
	return http.StatusNotFound
}

func (e ResourceNotFoundError) Unwrap() error {
	return e.err
}

func (e ResourceNotFoundError) Error() string {
	return fmt.Sprintf(`%s "%s" not found in the %s`, e.what, e.key, e.in)
}

func (e ResourceNotFoundError) ErrorUserMessage() string {
	return sentence(e.Error())
}

// ErrorLogEnabled disables the error log, a missing resource is an expected state.
func (e ResourceNotFoundError) ErrorLogEnabled() bool {
	return false
}

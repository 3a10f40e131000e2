// Package errors contains errors with an HTTP status code, they are converted to the JSON response by the httpserver package.
package errors

import (
	"context"
	"net/http"
	"strings"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// StatusClientClosedRequest is a non-standard status code, the client closed the connection before the response.
const StatusClientClosedRequest = 499

type WithStatusCode interface {
	StatusCode() int
}

type WithName interface {
	ErrorName() string
}

type WithUserMessage interface {
	ErrorUserMessage() string
}

type WithErrorLogEnabled interface {
	ErrorLogEnabled() bool
}

func HTTPCodeFrom(err error) int {
	var withStatusCode WithStatusCode
	switch {
	case errors.As(err, &withStatusCode):
		return withStatusCode.StatusCode()
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sentence converts an error message to a user message, for example "foo bar" to "Foo bar.".
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return msg
	}
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

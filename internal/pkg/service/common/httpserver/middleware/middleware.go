// Package middleware contains HTTP middlewares shared by HTTP servers.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type ctxKey string

type Middleware func(http.Handler) http.Handler

// Wrap handler with middlewares, the first middleware is the outermost.
func Wrap(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// ContextTimeout limits the request context.
func ContextTimeout(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeoutCause(req.Context(), timeout, errors.Errorf("request timeout after %s", timeout))
			defer cancel()
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

package middleware

import (
	"context"
	"net/http"
)

const (
	disabledTelemetryCtxKey = ctxKey("disabled-telemetry")
	disabledAccessLog       = ctxKey("disabled-access-log")
)

// FilterFn is a predicate used to determine whether a given http.request should
// be logged/metered. A Filter must return true if the request should be logged/metered.
type FilterFn func(*http.Request) bool

func Filter(cfg Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(ctxForFilteredRequest(cfg, req)))
		})
	}
}

// PathFilter returns a filter which ignores requests with one of the paths.
func PathFilter(paths ...string) FilterFn {
	return func(req *http.Request) bool {
		for _, path := range paths {
			if req.URL.Path == path {
				return false
			}
		}
		return true
	}
}

func ctxForFilteredRequest(cfg Config, req *http.Request) context.Context {
	ctx := req.Context()

	// Filter for whole telemetry
	for _, f := range cfg.filters {
		if !f(req) {
			ctx = context.WithValue(ctx, disabledTelemetryCtxKey, true)
			ctx = context.WithValue(ctx, disabledAccessLog, true)
			return ctx
		}
	}

	// Filter for access log
	for _, f := range cfg.accessLogFilters {
		if !f(req) {
			return context.WithValue(ctx, disabledAccessLog, true)
		}
	}

	return ctx
}

// isTelemetryDisabled returns true if the request should be excluded from telemetry.
func isTelemetryDisabled(req *http.Request) bool {
	return req.Context().Value(disabledTelemetryCtxKey) == true
}

// isAccessLogDisabled returns true if the request should not be logged.
func isAccessLogDisabled(req *http.Request) bool {
	return req.Context().Value(disabledAccessLog) == true
}

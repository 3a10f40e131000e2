package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
)

// Logger writes the access log.
func Logger(baseLogger log.Logger) Middleware {
	baseLogger = baseLogger.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// Capture response
			m := httpsnoop.CaptureMetrics(next, w, req)

			// Log
			if !isAccessLogDisabled(req) || m.Code >= http.StatusInternalServerError {
				logger := baseLogger.WithDuration(m.Duration).With(
					attribute.String("http.method", req.Method),
					attribute.Int("http.status", m.Code),
					attribute.Int64("http.bytes", m.Written),
				)
				logger.Infof(req.Context(), "req %s status=%d bytes=%d agent=%s", req.URL.String(), m.Code, m.Written, req.Header.Get("User-Agent"))
			}
		})
	}
}

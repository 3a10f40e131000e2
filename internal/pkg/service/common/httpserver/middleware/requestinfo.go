package middleware

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/cluster-resolver/internal/pkg/ctxattr"
	"github.com/keboola/cluster-resolver/internal/pkg/idgenerator"
)

const (
	RequestIDHeader  = "X-Request-Id"
	RequestCtxKey    = ctxKey("request")
	RequestIDCtxKey  = ctxKey("request-id")
	RequestURLCtxKey = ctxKey("request-url")
	attrRequestID    = "http.request_id"
)

// RequestInfo middleware adds requestID and URL to the context values.
func RequestInfo() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// Generate unique request ID
			requestID := idgenerator.RequestID()

			// Update context
			ctx := req.Context()
			ctx = context.WithValue(ctx, RequestCtxKey, req)
			ctx = context.WithValue(ctx, RequestIDCtxKey, requestID)
			ctx = context.WithValue(ctx, RequestURLCtxKey, req.URL)
			ctx = ctxattr.ContextWith(ctx, attribute.String(attrRequestID, requestID))
			req = req.WithContext(ctx)

			// Add request ID to headers
			w.Header().Add(RequestIDHeader, requestID)

			// Handle
			next.ServeHTTP(w, req)
		})
	}
}

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDCtxKey).(string)
	return v
}

func RequestValue(ctx context.Context) (*http.Request, bool) {
	v, ok := ctx.Value(RequestCtxKey).(*http.Request)
	return v, ok
}

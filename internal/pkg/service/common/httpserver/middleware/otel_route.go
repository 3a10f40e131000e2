package middleware

import (
	"net/http"

	"github.com/dimfeld/httptreemux/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// OpenTelemetryExtractRoute middleware adds route to the metrics attributes.
// The middleware must be registered directly to the httptreemux.ContextMux, it depends on httptreemux.ContextData.
func OpenTelemetryExtractRoute() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if routerData := httptreemux.ContextData(ctx); routerData != nil {
				labeler, _ := otelhttp.LabelerFromContext(ctx)
				labeler.Add(semconv.HTTPRoute(routerData.Route()))
			}
			next.ServeHTTP(w, req)
		})
	}
}

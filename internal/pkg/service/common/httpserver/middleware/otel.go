package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const SpanName = "http.server.request"

// OpenTelemetry middleware starts the request span and records HTTP server metrics.
func OpenTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, propagator propagation.TextMapPropagator, cfg Config) Middleware {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, SpanName, otelOptions(cfg, tp, mp, propagator)...)
	}
}

func otelOptions(cfg Config, tp trace.TracerProvider, mp metric.MeterProvider, propagator propagation.TextMapPropagator) []otelhttp.Option {
	out := []otelhttp.Option{
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithPropagators(propagator),
		otelhttp.WithFilter(func(req *http.Request) bool {
			return !isTelemetryDisabled(req)
		}),
	}
	for _, f := range cfg.filters {
		out = append(out, otelhttp.WithFilter(otelhttp.Filter(f)))
	}
	return out
}

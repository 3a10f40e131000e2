package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Prometheus is Telemetry with metrics exported in the Prometheus format.
// Spans are created by the SDK tracer provider, so the trace context is propagated between nodes.
type Prometheus struct {
	Telemetry
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	handler        http.Handler
}

func NewForPrometheus() (*Prometheus, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, errors.PrefixError(err, "cannot create Prometheus exporter")
	}

	tracerProvider := sdktrace.NewTracerProvider()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return &Prometheus{
		Telemetry:      New(tracerProvider, meterProvider),
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
		handler:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}, nil
}

// Handler serves the "/metrics" endpoint.
func (p *Prometheus) Handler() http.Handler {
	return p.handler
}

func (p *Prometheus) Shutdown(ctx context.Context) error {
	errs := errors.NewMultiError()
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		errs.Append(errors.PrefixError(err, "cannot shutdown tracer provider"))
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		errs.Append(errors.PrefixError(err, "cannot shutdown meter provider"))
	}
	return errs.ErrorOrNil()
}

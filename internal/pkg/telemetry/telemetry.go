// Package telemetry provides the OpenTelemetry tracer and meter for the service.
package telemetry

import (
	"go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	traceNoop "go.opentelemetry.io/otel/trace/noop"
)

const appName = "github.com/keboola/cluster-resolver"

type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
	Tracer() Tracer
	Meter() metric.Meter
	// Propagator injects and extracts the trace context to and from requests to other nodes.
	Propagator() propagation.TextMapPropagator
}

type telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         Tracer
	propagator     propagation.TextMapPropagator
}

func New(tracerProvider trace.TracerProvider, meterProvider metric.MeterProvider) Telemetry {
	if tracerProvider == nil {
		tracerProvider = traceNoop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	return &telemetry{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
		tracer:         &tracer{tracer: tracerProvider.Tracer(appName)},
		propagator:     propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
	}
}

// NewNop returns telemetry without any exporter.
func NewNop() Telemetry {
	return New(nil, nil)
}

func (t *telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

func (t *telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

func (t *telemetry) Tracer() Tracer {
	return t.tracer
}

func (t *telemetry) Meter() metric.Meter {
	return t.meterProvider.Meter(appName)
}

func (t *telemetry) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

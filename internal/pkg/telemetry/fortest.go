package telemetry

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ForTest is Telemetry which records ended spans in the memory.
type ForTest interface {
	Telemetry
	Spans() tracetest.SpanStubs
	SpanNames() []string
	Reset()
}

type forTest struct {
	Telemetry
	exporter *tracetest.InMemoryExporter
}

func NewForTest() ForTest {
	exporter := tracetest.NewInMemoryExporter()
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(exporter),
	)
	return &forTest{Telemetry: New(tracerProvider, nil), exporter: exporter}
}

func (v *forTest) Spans() tracetest.SpanStubs {
	return v.exporter.GetSpans()
}

func (v *forTest) SpanNames() []string {
	var out []string
	for _, s := range v.exporter.GetSpans() {
		out = append(out, s.Name)
	}
	return out
}

func (v *forTest) Reset() {
	v.exporter.Reset()
}

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// NoopLogger discards all log messages.
	NoopLogger struct{}
	// NoopMetrics discards all metrics.
	NoopMetrics struct{}
	// NoopTracer creates no-op spans.
	NoopTracer struct{}

	noopSpan struct{}
)

// NewNoop constructs a Bundle whose facets all discard their input. Used by
// tests and by callers that have not wired observability.
func NewNoop() Bundle {
	return Bundle{Logger: NoopLogger{}, Metrics: NoopMetrics{}, Tracer: NoopTracer{}}
}

// Debug discards the log message.
func (NoopLogger) Debug(context.Context, string, ...any) {}

// Info discards the log message.
func (NoopLogger) Info(context.Context, string, ...any) {}

// Warn discards the log message.
func (NoopLogger) Warn(context.Context, string, ...any) {}

// Error discards the log message.
func (NoopLogger) Error(context.Context, string, ...any) {}

// IncCounter discards the counter metric.
func (NoopMetrics) IncCounter(string, float64, ...string) {}

// RecordTimer discards the timer metric.
func (NoopMetrics) RecordTimer(string, time.Duration, ...string) {}

// RecordGauge discards the gauge metric.
func (NoopMetrics) RecordGauge(string, float64, ...string) {}

// Start returns a no-op span without modifying the context.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, Span) {
	return ctx, noopSpan{}
}

// Span returns a no-op span.
func (NoopTracer) Span(context.Context) Span { return noopSpan{} }

func (noopSpan) End(...trace.SpanEndOption)             {}
func (noopSpan) AddEvent(string, ...any)                {}
func (noopSpan) SetStatus(codes.Code, string)           {}
func (noopSpan) RecordError(error, ...trace.EventOption) {}

// Package telemetry defines the narrow logging/metrics/tracing interfaces
// used throughout the research engine. Every stage (event bus emission,
// provider calls, budget checks, gap analysis, tree branch exploration)
// logs and traces through these interfaces rather than calling a concrete
// logging library directly, so production code can wire Clue/OTEL while
// tests wire a no-op implementation.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the engine.
// Implementations typically delegate to goa.design/clue/log but the
// interface is intentionally small so tests can provide lightweight stubs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter/timer/gauge helpers for engine instrumentation
// (stage latency, provider error rate, budget stops, cache hit ratio).
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so engine code remains agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Bundle groups the three telemetry facets so components can accept a
// single constructor argument instead of three.
type Bundle struct {
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer
}

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"
)

type (
	// ClueLogger wraps goa.design/clue/log for engine logging.
	ClueLogger struct{}

	// ClueMetrics wraps OTEL metrics for engine instrumentation.
	ClueMetrics struct{ meter metric.Meter }

	// ClueTracer wraps OTEL tracing for engine tracing.
	ClueTracer struct{ tracer trace.Tracer }

	clueSpan struct{ span trace.Span }
)

// NewClue constructs a Bundle that delegates logging to goa.design/clue/log
// and metrics/tracing to the global OTEL providers. Configure those
// providers (via clue.ConfigureOpenTelemetry or environment variables)
// before invoking engine methods.
func NewClue() Bundle {
	return Bundle{
		Logger:  ClueLogger{},
		Metrics: &ClueMetrics{meter: otel.Meter("github.com/deepresearch/core")},
		Tracer:  &ClueTracer{tracer: otel.Tracer("github.com/deepresearch/core")},
	}
}

// Debug emits a debug-level log message with structured key-value pairs.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, kvFielders(msg, keyvals)...)
}

// Info emits an info-level log message with structured key-value pairs.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, kvFielders(msg, keyvals)...)
}

// Warn emits a warning-level log message with structured key-value pairs.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	fielders := append(kvFielders(msg, keyvals), log.KV{K: "severity", V: "warning"})
	log.Warn(ctx, fielders...)
}

// Error emits an error-level log message with structured key-value pairs.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	log.Error(ctx, nil, kvFielders(msg, keyvals)...)
}

func kvFielders(msg string, keyvals []any) []log.Fielder {
	fielders := []log.Fielder{log.KV{K: "msg", V: msg}}
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, _ := keyvals[i].(string)
		if key == "" {
			key = "field"
		}
		fielders = append(fielders, log.KV{K: key, V: keyvals[i+1]})
	}
	return fielders
}

// IncCounter increments a counter metric by the given value.
func (m *ClueMetrics) IncCounter(name string, value float64, tags ...string) {
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), value, metric.WithAttributes(tagsToAttrs(tags)...))
}

// RecordTimer records a duration histogram.
func (m *ClueMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	histogram, err := m.meter.Float64Histogram(name)
	if err != nil {
		return
	}
	histogram.Record(context.Background(), duration.Seconds(), metric.WithAttributes(tagsToAttrs(tags)...))
}

// RecordGauge records an instantaneous gauge value.
func (m *ClueMetrics) RecordGauge(name string, value float64, tags ...string) {
	gauge, err := m.meter.Float64Gauge(name)
	if err != nil {
		return
	}
	gauge.Record(context.Background(), value, metric.WithAttributes(tagsToAttrs(tags)...))
}

func tagsToAttrs(tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		attrs = append(attrs, attribute.String(tags[i], tags[i+1]))
	}
	return attrs
}

// Start begins a new span.
func (t *ClueTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &clueSpan{span: span}
}

// Span returns the current span from the context, or a no-op span if none.
func (t *ClueTracer) Span(ctx context.Context) Span {
	return &clueSpan{span: trace.SpanFromContext(ctx)}
}

func (s *clueSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

func (s *clueSpan) AddEvent(name string, attrs ...any) {
	kvs := make([]attribute.KeyValue, 0, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		key, _ := attrs[i].(string)
		kvs = append(kvs, attribute.String(key, toString(attrs[i+1])))
	}
	s.span.AddEvent(name, trace.WithAttributes(kvs...))
}

func (s *clueSpan) SetStatus(code codes.Code, description string) { s.span.SetStatus(code, description) }

func (s *clueSpan) RecordError(err error, opts ...trace.EventOption) { s.span.RecordError(err, opts...) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

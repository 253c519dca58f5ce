package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records search metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSearch records a completed search with its outcome.
	RecordSearch(ctx context.Context, success bool, duration time.Duration)

	// RecordPhase records a phase execution with its duration.
	RecordPhase(ctx context.Context, phase string, duration time.Duration, err error)

	// RecordCall records an LLM call (generation or evaluation) with its
	// duration, attempt count, and error status.
	RecordCall(ctx context.Context, kind string, duration time.Duration, attempts int, err error)

	// RecordBranches records branches generated and kept at a depth.
	RecordBranches(ctx context.Context, generated, kept int)

	// RecordCheckpoint records a checkpoint save operation.
	RecordCheckpoint(ctx context.Context, phase string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	searches       metric.Int64Counter
	searchLatency  metric.Float64Histogram
	phaseLatency   metric.Float64Histogram
	phaseErrors    metric.Int64Counter
	callLatency    metric.Float64Histogram
	callAttempts   metric.Int64Histogram
	callErrors     metric.Int64Counter
	branches       metric.Int64Counter
	checkpointSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("thoughttree")

	searches, err := meter.Int64Counter("thoughttree.search.runs",
		metric.WithDescription("Number of searches run"),
	)
	if err != nil {
		return nil, err
	}

	searchLatency, err := meter.Float64Histogram("thoughttree.search.latency_ms",
		metric.WithDescription("Search latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	phaseLatency, err := meter.Float64Histogram("thoughttree.phase.latency_ms",
		metric.WithDescription("Phase latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	phaseErrors, err := meter.Int64Counter("thoughttree.phase.errors",
		metric.WithDescription("Number of phase errors"),
	)
	if err != nil {
		return nil, err
	}

	callLatency, err := meter.Float64Histogram("thoughttree.call.latency_ms",
		metric.WithDescription("LLM call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	callAttempts, err := meter.Int64Histogram("thoughttree.call.attempts",
		metric.WithDescription("Attempts per LLM call including retries"),
	)
	if err != nil {
		return nil, err
	}

	callErrors, err := meter.Int64Counter("thoughttree.call.errors",
		metric.WithDescription("Number of LLM calls dropped after retries"),
	)
	if err != nil {
		return nil, err
	}

	branches, err := meter.Int64Counter("thoughttree.branches",
		metric.WithDescription("Branches generated and kept per depth"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSize, err := meter.Int64Histogram("thoughttree.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		searches:       searches,
		searchLatency:  searchLatency,
		phaseLatency:   phaseLatency,
		phaseErrors:    phaseErrors,
		callLatency:    callLatency,
		callAttempts:   callAttempts,
		callErrors:     callErrors,
		branches:       branches,
		checkpointSize: checkpointSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordSearch records a completed search.
func (m *otelMetrics) RecordSearch(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.searches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.searchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordPhase records a phase execution.
func (m *otelMetrics) RecordPhase(ctx context.Context, phase string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("phase", phase),
	}
	m.phaseLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.phaseErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordCall records an LLM call.
func (m *otelMetrics) RecordCall(ctx context.Context, kind string, duration time.Duration, attempts int, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
	}
	m.callLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.callAttempts.Record(ctx, int64(attempts), metric.WithAttributes(attrs...))
	if err != nil {
		m.callErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordBranches records branch counts at a depth.
func (m *otelMetrics) RecordBranches(ctx context.Context, generated, kept int) {
	m.branches.Add(ctx, int64(generated), metric.WithAttributes(attribute.String("outcome", "generated")))
	m.branches.Add(ctx, int64(kept), metric.WithAttributes(attribute.String("outcome", "kept")))
}

// RecordCheckpoint records a checkpoint save.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, phase string, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("phase", phase),
	}
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attrs...))
}

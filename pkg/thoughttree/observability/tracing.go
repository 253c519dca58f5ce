package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the thoughttree tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("thoughttree")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartSearchSpan starts a span for the entire search.
	StartSearchSpan(ctx context.Context, searchID string) (context.Context, trace.Span)

	// StartPhaseSpan starts a span for one FSM phase at one depth.
	// The phase span should be a child of the search span.
	StartPhaseSpan(ctx context.Context, phase string, depth int) (context.Context, trace.Span)

	// StartCallSpan starts a span for a single LLM call.
	StartCallSpan(ctx context.Context, kind, callID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartSearchSpan starts a span for the entire search.
func (m *otelSpanManager) StartSearchSpan(ctx context.Context, searchID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "thoughttree.search",
		trace.WithAttributes(
			attribute.String("search.id", searchID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartPhaseSpan starts a span for a phase execution.
func (m *otelSpanManager) StartPhaseSpan(ctx context.Context, phase string, depth int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "thoughttree.phase."+phase,
		trace.WithAttributes(
			attribute.String("phase", phase),
			attribute.Int("depth", depth),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartCallSpan starts a span for a single LLM call.
func (m *otelSpanManager) StartCallSpan(ctx context.Context, kind, callID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "thoughttree.call."+kind,
		trace.WithAttributes(
			attribute.String("call.kind", kind),
			attribute.String("call.id", callID),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

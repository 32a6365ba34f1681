package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "weft"

// Tracer wraps an OpenTelemetry tracer with spans shaped for the live
// session loop. A nil Tracer is valid and records nothing.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer resolves a tracer from the global provider. Pass an empty
// name for the default.
func NewTracer(name string) *Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return &Tracer{tracer: otel.Tracer(name)}
}

// StartEvent opens a span for one client event. End it with EndEvent.
func (t *Tracer) StartEvent(ctx context.Context, session string, component uint64, name string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "weft.event",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("weft.session", session),
			attribute.Int64("weft.component", int64(component)),
			attribute.String("weft.event", name),
		))
}

// EndEvent closes an event span, recording err if non-nil.
func (t *Tracer) EndEvent(span trace.Span, err error) {
	if t == nil {
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

// StartFlush opens a span covering one settle pass.
func (t *Tracer) StartFlush(ctx context.Context, session string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "weft.flush",
		trace.WithAttributes(attribute.String("weft.session", session)))
}

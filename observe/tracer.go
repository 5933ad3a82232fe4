package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Op identifies an authorization operation for telemetry purposes.
type Op struct {
	Component string // owning component, e.g. "authz" or "controller"
	Name      string // operation name, e.g. "validate"
}

// SpanName returns the deterministic span name for this operation.
// Format: auth.<component>.<name> or auth.<name>
func (o Op) SpanName() string {
	if o.Component != "" {
		return "auth." + o.Component + "." + o.Name
	}
	return "auth." + o.Name
}

// Tracer wraps OpenTelemetry tracing with operation-scoped span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for the operation.
	StartSpan(ctx context.Context, op Op) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, op Op) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("auth.op", op.Name),
	}
	if op.Component != "" {
		attrs = append(attrs, attribute.String("auth.component", op.Component))
	}

	return t.tracer.Start(ctx, op.SpanName(), trace.WithAttributes(attrs...))
}

// EndSpan ends the span, recording the error status.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer implementation that does nothing.
type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, _ Op) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (noopTracer) EndSpan(trace.Span, error) {}

// NewNoopTracer returns a Tracer that records nothing.
func NewNoopTracer() Tracer {
	return noopTracer{}
}

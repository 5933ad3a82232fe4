package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies how an authorization operation resolved.
type Outcome string

const (
	// OutcomeBypass means the static API key short-circuited the call.
	OutcomeBypass Outcome = "bypass"
	// OutcomeHit means the cache answered without a remote call.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means the remote controller was consulted.
	OutcomeMiss Outcome = "miss"
	// OutcomeError means the operation degraded to a safe negative.
	OutcomeError Outcome = "error"
)

// Metrics records authorization operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records one operation with its outcome and duration.
	RecordOp(ctx context.Context, op Op, outcome Outcome, duration time.Duration)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"auth.op.total",
		metric.WithDescription("Total number of authorization operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"auth.op.errors",
		metric.WithDescription("Authorization operations degraded to a safe negative"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"auth.op.duration_ms",
		metric.WithDescription("Authorization operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordOp records metrics for one authorization operation.
func (m *metricsImpl) RecordOp(ctx context.Context, op Op, outcome Outcome, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("auth.op", op.Name),
		attribute.String("auth.outcome", string(outcome)),
	}
	if op.Component != "" {
		attrs = append(attrs, attribute.String("auth.component", op.Component))
	}

	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if outcome == OutcomeError {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordOp(context.Context, Op, Outcome, time.Duration) {}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

// Package observe provides application-wide observability primitives
// for redraft: OpenTelemetry metrics with a Prometheus exporter bridge,
// and tracing for the edit pipeline.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is
// provided for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all redraft metrics.
const meterName = "github.com/voxlane/redraft"

// Metrics holds the OpenTelemetry metric instruments for the editor.
// All fields are safe for concurrent use.
type Metrics struct {
	// EditDuration tracks end-to-end edit latency in seconds. Use with
	// attributes: attribute.String("mode", ...), attribute.String("outcome", ...).
	EditDuration metric.Float64Histogram

	// ModelRequests counts edit operations run against the model
	// backend, one per operation whatever the number of calls it made.
	// Use with attributes: attribute.String("backend", ...),
	// attribute.String("status", ...).
	ModelRequests metric.Int64Counter

	// ModelErrors counts classified model failures. Use with attributes:
	// attribute.String("backend", ...), attribute.String("kind", ...).
	ModelErrors metric.Int64Counter

	// Fallbacks counts edits that ended in the deterministic fallback.
	// Use with attribute: attribute.String("mode", ...).
	Fallbacks metric.Int64Counter

	// DebugDrops counts debug records dropped because the sink queue
	// was full.
	DebugDrops metric.Int64Counter
}

// NewMetrics creates all instruments from the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	editDuration, err := meter.Float64Histogram("redraft.edit.duration",
		metric.WithDescription("End-to-end edit pipeline latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	modelRequests, err := meter.Int64Counter("redraft.model.requests",
		metric.WithDescription("Edit operations run against the model backend"))
	if err != nil {
		return nil, err
	}
	modelErrors, err := meter.Int64Counter("redraft.model.errors",
		metric.WithDescription("Classified model call failures"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("redraft.edit.fallbacks",
		metric.WithDescription("Edits that produced deterministic fallback output"))
	if err != nil {
		return nil, err
	}
	debugDrops, err := meter.Int64Counter("redraft.debug.drops",
		metric.WithDescription("Debug records dropped due to a full sink queue"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		EditDuration:  editDuration,
		ModelRequests: modelRequests,
		ModelErrors:   modelErrors,
		Fallbacks:     fallbacks,
		DebugDrops:    debugDrops,
	}, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide [Metrics] instance backed by
// the global meter provider. Instruments against a pre-[InitProvider]
// global are no-ops, so early callers are safe.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			// The no-op provider never fails instrument creation; a
			// real provider failing here leaves metrics disabled.
			m = &Metrics{}
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordEdit is a convenience helper recording one finished edit.
func (m *Metrics) RecordEdit(ctx context.Context, mode string, seconds float64, fallback bool) {
	outcome := "success"
	if fallback {
		outcome = "fallback"
	}
	if m.EditDuration != nil {
		m.EditDuration.Record(ctx, seconds,
			metric.WithAttributes(attribute.String("mode", mode), attribute.String("outcome", outcome)))
	}
	if fallback && m.Fallbacks != nil {
		m.Fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	}
}

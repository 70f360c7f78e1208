package observe_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/voxlane/redraft/internal/observe"
)

func TestNewMetrics_CreatesInstruments(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if m.EditDuration == nil || m.ModelRequests == nil || m.ModelErrors == nil || m.Fallbacks == nil || m.DebugDrops == nil {
		t.Fatal("instruments not initialised")
	}
}

func TestRecordEdit(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordEdit(ctx, "clean", 0.25, false)
	m.RecordEdit(ctx, "clean", 1.5, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, inst := range scope.Metrics {
			names[inst.Name] = true
		}
	}
	if !names["redraft.edit.duration"] {
		t.Error("edit duration histogram not recorded")
	}
	if !names["redraft.edit.fallbacks"] {
		t.Error("fallback counter not recorded")
	}
}

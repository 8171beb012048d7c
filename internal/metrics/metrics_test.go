package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/yairfalse/harava/sweep"
)

func TestRecordSweep(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	e, err := NewEmitter()
	require.NoError(t, err)

	start := time.Now()
	report := &sweep.Report{
		Prefix:     "github/",
		Mutation:   "ensure tags team=platform",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Results: []sweep.Result{
			{Region: "us-east-1", Name: "github/api", Outcome: sweep.OutcomeApplied, Qualified: true},
			{Region: "us-east-1", Name: "github/web", Outcome: sweep.OutcomeSkipped},
		},
		RegionFailures: []sweep.RegionFailure{{Region: "eu-west-1", Error: "throttled"}},
	}
	e.RecordSweep(context.Background(), report)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]bool)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = true
	}
	assert.True(t, names["harava_sweeps_total"])
	assert.True(t, names["harava_sweep_duration_seconds"])
	assert.True(t, names["harava_sweep_outcomes_total"])
	assert.True(t, names["harava_region_failures_total"])
}

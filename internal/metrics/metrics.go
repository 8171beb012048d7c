// Package metrics emits sweep results in Prometheus format via OTEL.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/yairfalse/harava/sweep"
)

// Emitter records sweep reports as metrics. Used by watch mode, where
// the report is also scraped rather than printed.
type Emitter struct {
	meter metric.Meter

	sweepDuration       metric.Float64Histogram
	sweepsTotal         metric.Int64Counter
	outcomesTotal       metric.Int64Counter
	regionFailuresTotal metric.Int64Counter
}

// NewEmitter creates a sweep metrics emitter.
func NewEmitter() (*Emitter, error) {
	e := &Emitter{meter: otel.Meter("harava")}

	var err error
	e.sweepDuration, err = e.meter.Float64Histogram(
		"harava_sweep_duration_seconds",
		metric.WithDescription("Time taken by one full sweep"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sweep_duration histogram: %w", err)
	}

	e.sweepsTotal, err = e.meter.Int64Counter(
		"harava_sweeps_total",
		metric.WithDescription("Total sweeps run"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sweeps counter: %w", err)
	}

	e.outcomesTotal, err = e.meter.Int64Counter(
		"harava_sweep_outcomes_total",
		metric.WithDescription("Per-resource sweep outcomes"),
	)
	if err != nil {
		return nil, fmt.Errorf("create outcomes counter: %w", err)
	}

	e.regionFailuresTotal, err = e.meter.Int64Counter(
		"harava_region_failures_total",
		metric.WithDescription("Regions whose listing failed entirely"),
	)
	if err != nil {
		return nil, fmt.Errorf("create region_failures counter: %w", err)
	}

	return e, nil
}

// RecordSweep records one finished sweep report.
func (e *Emitter) RecordSweep(ctx context.Context, report *sweep.Report) {
	mutation := attribute.String("mutation", report.Mutation)

	e.sweepsTotal.Add(ctx, 1, metric.WithAttributes(mutation))
	e.sweepDuration.Record(ctx, report.FinishedAt.Sub(report.StartedAt).Seconds(),
		metric.WithAttributes(mutation))

	for _, res := range report.Results {
		e.outcomesTotal.Add(ctx, 1, metric.WithAttributes(
			mutation,
			attribute.String("region", res.Region),
			attribute.String("outcome", string(res.Outcome)),
		))
	}
	for _, failure := range report.RegionFailures {
		e.regionFailuresTotal.Add(ctx, 1, metric.WithAttributes(
			mutation,
			attribute.String("region", failure.Region),
		))
	}
}

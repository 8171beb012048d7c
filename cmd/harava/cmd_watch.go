package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/yairfalse/harava/internal/metrics"
	"github.com/yairfalse/harava/providers/awsecr"
	"github.com/yairfalse/harava/sweep"
)

var (
	watchPrefix      string
	watchInterval    time.Duration
	watchMetricsAddr string
	watchWorkers     int
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously report tagging drift as Prometheus metrics",
	Long: `Run the untagged-repository sweep on an interval and expose the
results on a Prometheus /metrics endpoint. Watch mode never mutates;
it exists to alert on drift, not to fix it.

Shuts down gracefully on SIGINT/SIGTERM.`,
	Example: `  harava watch --prefix github/                       # Defaults from config
  harava watch --prefix github/ --interval 30m
  harava watch --prefix github/ --metrics :9191`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchPrefix, "prefix", "", "Repository name prefix")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Sweep interval (defaults to config watch.interval)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics", "", "Metrics server address (defaults to config watch.metrics_addr)")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 4, "Concurrent region workers")
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, err := resolveWatchInterval(watchInterval, cfg.Watch.Interval)
	if err != nil {
		return err
	}
	metricsAddr := watchMetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Watch.MetricsAddr
	}

	exporter, err := prometheus.New()
	if err != nil {
		return err
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))

	emitter, err := metrics.NewEmitter()
	if err != nil {
		return err
	}

	client, err := awsecr.New(cmd.Context(), logger)
	if err != nil {
		return err
	}

	coordinator := sweep.New(client, client, sweep.HasNoTags(),
		sweep.NopMutator{Desc: "report untagged repositories"},
		sweepOptions(watchPrefix, "", false, watchWorkers), logger)

	logger.Info().
		Dur("interval", interval).
		Str("metrics_addr", metricsAddr).
		Msg("watch starting")

	var g run.Group
	g.Add(run.SignalHandler(cmd.Context(), syscall.SIGINT, syscall.SIGTERM))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	g.Add(func() error {
		logger.Info().Str("addr", metricsAddr).Msg("metrics server listening")
		return srv.ListenAndServe()
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	sweepCtx, cancelSweeps := context.WithCancel(cmd.Context())
	g.Add(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sweepOnce(sweepCtx, coordinator, emitter)
		for {
			select {
			case <-ticker.C:
				sweepOnce(sweepCtx, coordinator, emitter)
			case <-sweepCtx.Done():
				return sweepCtx.Err()
			}
		}
	}, func(error) {
		cancelSweeps()
	})

	err = g.Run()

	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		logger.Info().Msg("watch stopped")
		return nil
	}
	return err
}

// resolveWatchInterval picks the flag value over config and enforces
// the same 1-minute floor Config.Validate applies, so a flag-supplied
// interval cannot reach time.NewTicker non-positive.
func resolveWatchInterval(flagValue, configValue time.Duration) (time.Duration, error) {
	interval := flagValue
	if interval == 0 {
		interval = configValue
	}
	if interval < time.Minute {
		return 0, fmt.Errorf("--interval must be at least 1m (got %s)", interval)
	}
	return interval, nil
}

func sweepOnce(ctx context.Context, coordinator *sweep.Coordinator, emitter *metrics.Emitter) {
	report := coordinator.Run(ctx)
	emitter.RecordSweep(ctx, report)

	counts := report.Counts()
	logger.Info().
		Int("candidates", counts.Candidates).
		Int("skipped", counts.Skipped).
		Int("failed", counts.Failed).
		Int("region_failures", len(report.RegionFailures)).
		Msg("sweep complete")
}

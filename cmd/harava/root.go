package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yairfalse/harava/internal/config"
	"github.com/yairfalse/harava/sweep"
)

var (
	version = "0.1.0"

	cfgFile string
	debug   bool

	cfg    *config.Config
	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "harava",
		Short: "Resource Reconciliation Sweeps",
		Long: `Harava rakes cloud inventories into shape. A sweep lists resources
matching a name prefix across regions, tests each against a
qualification rule, and applies one idempotent mutation to the ones
that qualify.

Every sweep is a dry run unless --apply is given. A sweep that ran to
completion exits 0 even when individual mutations failed; read the
report for per-resource outcomes. A non-zero exit means the sweep
could not run at all (bad arguments or configuration).`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Harava {{.Version}} - Resource Reconciliation Sweeps
`)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log: invalid level %q: %w", cfg.Log.Level, err)
	}
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	return nil
}

// sweepOptions builds coordinator options from the shared flag set,
// falling back to config for prefix and region allow-list.
func sweepOptions(prefix, region string, apply bool, workers int) sweep.Options {
	if prefix == "" {
		prefix = cfg.Prefix
	}
	return sweep.Options{
		Region:       region,
		AllowRegions: cfg.Regions,
		Prefix:       prefix,
		DryRun:       !apply,
		Workers:      workers,
	}
}

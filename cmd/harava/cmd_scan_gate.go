package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yairfalse/harava/providers/awsecr"
	"github.com/yairfalse/harava/sweep"
)

var (
	scanGatePrefix      string
	scanGateRegion      string
	scanGateMaxCritical int
	scanGateMaxHigh     int
	scanGateWorkers     int
	scanGateOutput      string
)

// scanGateCmd represents the scan-gate command
var scanGateCmd = &cobra.Command{
	Use:   "scan-gate",
	Short: "Report repositories whose latest scan exceeds finding thresholds",
	Long: `Sweep ECR repositories matching the name prefix and report every
repository whose most recent image scan has more critical or high
findings than the thresholds allow.

The gate result is data, not an exit code: a completed sweep exits 0
even when repositories fail the gate. Pipe the JSON output into CI
tooling that needs to act on it.`,
	Example: `  harava scan-gate --prefix github/                           # Zero tolerance
  harava scan-gate --prefix github/ --max-high 5              # Allow 5 high findings
  harava scan-gate --prefix github/ -o json                   # Machine-readable`,
	RunE: runScanGate,
}

func init() {
	rootCmd.AddCommand(scanGateCmd)

	scanGateCmd.Flags().StringVar(&scanGatePrefix, "prefix", "", "Repository name prefix")
	scanGateCmd.Flags().StringVarP(&scanGateRegion, "region", "r", "", "Sweep a single region instead of enumerating")
	scanGateCmd.Flags().IntVar(&scanGateMaxCritical, "max-critical", 0, "Maximum allowed critical findings")
	scanGateCmd.Flags().IntVar(&scanGateMaxHigh, "max-high", 0, "Maximum allowed high findings")
	scanGateCmd.Flags().IntVar(&scanGateWorkers, "workers", 4, "Concurrent region workers")
	scanGateCmd.Flags().StringVarP(&scanGateOutput, "output", "o", "table", "Output format: table, json")
}

func runScanGate(cmd *cobra.Command, args []string) error {
	if err := validateOutput(scanGateOutput); err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := awsecr.New(ctx, logger)
	if err != nil {
		return err
	}

	// Report-only: the gate never mutates, so the sweep is always a dry run.
	coordinator := sweep.New(client, awsecr.NewGateLister(client),
		awsecr.ExceedsFindings(scanGateMaxCritical, scanGateMaxHigh),
		sweep.NopMutator{Desc: "flag repositories exceeding scan finding thresholds"},
		sweepOptions(scanGatePrefix, scanGateRegion, false, scanGateWorkers), logger)

	return renderReport(os.Stdout, coordinator.Run(ctx), scanGateOutput)
}

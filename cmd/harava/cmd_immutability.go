package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yairfalse/harava/providers/awsecr"
	"github.com/yairfalse/harava/sweep"
)

var (
	immutabilityPrefix  string
	immutabilityRegion  string
	immutabilityMode    string
	immutabilityApply   bool
	immutabilityWorkers int
	immutabilityOutput  string
)

// immutabilityCmd represents the immutability command
var immutabilityCmd = &cobra.Command{
	Use:   "immutability",
	Short: "Converge repository tag mutability to one mode",
	Long: `Sweep ECR repositories matching the name prefix and set image tag
mutability on every repository not already in the target mode.
Repositories already in the target mode are skipped.`,
	Example: `  harava immutability --prefix github/                     # Dry run, target IMMUTABLE
  harava immutability --prefix github/ --apply             # Mutate
  harava immutability --prefix github/ --mode MUTABLE      # Converge the other way`,
	RunE: runImmutability,
}

func init() {
	rootCmd.AddCommand(immutabilityCmd)

	immutabilityCmd.Flags().StringVar(&immutabilityPrefix, "prefix", "", "Repository name prefix")
	immutabilityCmd.Flags().StringVarP(&immutabilityRegion, "region", "r", "", "Sweep a single region instead of enumerating")
	immutabilityCmd.Flags().StringVar(&immutabilityMode, "mode", "IMMUTABLE", "Target mutability: IMMUTABLE or MUTABLE")
	immutabilityCmd.Flags().BoolVar(&immutabilityApply, "apply", false, "Apply mutations instead of reporting them")
	immutabilityCmd.Flags().IntVar(&immutabilityWorkers, "workers", 4, "Concurrent region workers")
	immutabilityCmd.Flags().StringVarP(&immutabilityOutput, "output", "o", "table", "Output format: table, json")
}

func runImmutability(cmd *cobra.Command, args []string) error {
	if err := validateOutput(immutabilityOutput); err != nil {
		return err
	}

	var pred sweep.Predicate
	switch immutabilityMode {
	case "IMMUTABLE":
		pred = sweep.IsMutable()
	case "MUTABLE":
		pred = sweep.HasMutability("IMMUTABLE")
	default:
		return fmt.Errorf("invalid mode: %s (must be IMMUTABLE or MUTABLE)", immutabilityMode)
	}

	ctx := cmd.Context()
	client, err := awsecr.New(ctx, logger)
	if err != nil {
		return err
	}

	mutator := awsecr.NewMutabilityMutator(client.ECR(), immutabilityMode)
	coordinator := sweep.New(client, client, pred, mutator,
		sweepOptions(immutabilityPrefix, immutabilityRegion, immutabilityApply, immutabilityWorkers), logger)

	return renderReport(os.Stdout, coordinator.Run(ctx), immutabilityOutput)
}

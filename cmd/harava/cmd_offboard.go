package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/harava/providers/awsiam"
	"github.com/yairfalse/harava/sweep"
)

var (
	offboardPrefix string
	offboardApply  bool
	offboardRetry  time.Duration
	offboardOutput string
)

// offboardCmd represents the offboard command
var offboardCmd = &cobra.Command{
	Use:   "offboard",
	Short: "Revoke credentials of IAM users matching a prefix",
	Long: `Sweep IAM users whose names match the prefix and revoke each user's
credentials: every access key is deactivated and the console login
profile is deleted. Users with no active credentials are skipped.

IAM is a global service, so the sweep runs in the single aws-global
partition. The prefix is required and must be non-empty: an empty
prefix would match every user in the account.`,
	Example: `  harava offboard --prefix contractor-            # Dry run
  harava offboard --prefix contractor- --apply    # Revoke credentials`,
	RunE: runOffboard,
}

func init() {
	rootCmd.AddCommand(offboardCmd)

	offboardCmd.Flags().StringVar(&offboardPrefix, "prefix", "", "User name prefix (required)")
	offboardCmd.Flags().BoolVar(&offboardApply, "apply", false, "Apply mutations instead of reporting them")
	offboardCmd.Flags().DurationVar(&offboardRetry, "retry", 0, "Retry failed mutations for up to this duration")
	offboardCmd.Flags().StringVarP(&offboardOutput, "output", "o", "table", "Output format: table, json")
}

func runOffboard(cmd *cobra.Command, args []string) error {
	if err := validateOutput(offboardOutput); err != nil {
		return err
	}
	if offboardPrefix == "" {
		return fmt.Errorf("--prefix is required")
	}

	ctx := cmd.Context()
	client, err := awsiam.New(ctx, logger)
	if err != nil {
		return err
	}

	var mutator sweep.Mutator = awsiam.NewOffboardMutator(client.IAM(), logger)
	if offboardRetry > 0 {
		mutator = sweep.WithRetry(mutator, offboardRetry)
	}

	coordinator := sweep.New(client, client, awsiam.HasActiveCredentials(), mutator,
		sweep.Options{Prefix: offboardPrefix, DryRun: !offboardApply, Workers: 1}, logger)

	return renderReport(os.Stdout, coordinator.Run(ctx), offboardOutput)
}

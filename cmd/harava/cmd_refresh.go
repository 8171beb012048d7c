package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yairfalse/harava/internal/docker"
	"github.com/yairfalse/harava/providers/awsecr"
	"github.com/yairfalse/harava/sweep"
)

var (
	refreshPrefix  string
	refreshRegion  string
	refreshAccount string
	refreshKeep    int
	refreshApply   bool
	refreshOutput  string
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-push recent image tags to reset their push timestamps",
	Long: `Sweep ECR repositories matching the name prefix and, for each, pull
the most recent image tags, delete them in the registry, and push the
same images back. Image content and tags are unchanged; only the push
timestamps move, which keeps lifecycle policies from expiring images
that are still in use.

Requires a working docker CLI and registry credentials. The sweep is
limited to one region because images are pulled through the local
docker daemon.`,
	Example: `  harava refresh --prefix github/ --region us-east-1           # Dry run
  harava refresh --prefix github/ --region us-east-1 --apply   # Re-push
  harava refresh --prefix github/ --region us-east-1 --keep 5  # More tags`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringVar(&refreshPrefix, "prefix", "", "Repository name prefix")
	refreshCmd.Flags().StringVarP(&refreshRegion, "region", "r", "", "Region to sweep (required)")
	refreshCmd.Flags().StringVar(&refreshAccount, "account-id", "", "Registry account (resolved via STS when empty)")
	refreshCmd.Flags().IntVar(&refreshKeep, "keep", 3, "Recent image tags to refresh per repository")
	refreshCmd.Flags().BoolVar(&refreshApply, "apply", false, "Apply mutations instead of reporting them")
	refreshCmd.Flags().StringVarP(&refreshOutput, "output", "o", "table", "Output format: table, json")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := validateOutput(refreshOutput); err != nil {
		return err
	}
	if refreshRegion == "" {
		return fmt.Errorf("--region is required")
	}
	if refreshKeep < 1 {
		return fmt.Errorf("--keep must be at least 1")
	}

	ctx := cmd.Context()
	client, err := awsecr.New(ctx, logger)
	if err != nil {
		return err
	}

	account := refreshAccount
	if account == "" {
		if account, err = client.AccountID(ctx); err != nil {
			return err
		}
	}

	runner := docker.NewCLI(logger)
	if refreshApply {
		if err := client.Login(ctx, runner, account, refreshRegion); err != nil {
			return err
		}
	}

	lister := awsecr.NewRefreshLister(client, account, refreshKeep, logger)
	mutator := awsecr.NewRefreshMutator(client, runner, account, logger)
	coordinator := sweep.New(client, lister, awsecr.HasRefreshableImages(), mutator,
		sweepOptions(refreshPrefix, refreshRegion, refreshApply, 1), logger)

	return renderReport(os.Stdout, coordinator.Run(ctx), refreshOutput)
}

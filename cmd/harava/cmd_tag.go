package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/harava/providers/awsecr"
	"github.com/yairfalse/harava/sweep"
	"github.com/yairfalse/harava/types"
)

var (
	tagPrefix  string
	tagRegion  string
	tagTags    []string
	tagApply   bool
	tagWorkers int
	tagRetry   time.Duration
	tagOutput  string
)

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Apply a tag set to untagged repositories",
	Long: `Sweep ECR repositories matching the name prefix and apply the given
tag set to every repository that currently has zero tags. Repositories
that already carry any tag are skipped, so re-running the sweep never
overwrites existing tags.`,
	Example: `  harava tag --prefix github/ --tag team=platform            # Dry run
  harava tag --prefix github/ --tag team=platform --apply     # Mutate
  harava tag --prefix github/ --region us-east-1 --apply      # One region
  harava tag --config harava.yaml --apply                     # Tags from config`,
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().StringVar(&tagPrefix, "prefix", "", "Repository name prefix")
	tagCmd.Flags().StringVarP(&tagRegion, "region", "r", "", "Sweep a single region instead of enumerating")
	tagCmd.Flags().StringArrayVar(&tagTags, "tag", nil, "Tag to apply as KEY=VALUE (repeatable)")
	tagCmd.Flags().BoolVar(&tagApply, "apply", false, "Apply mutations instead of reporting them")
	tagCmd.Flags().IntVar(&tagWorkers, "workers", 4, "Concurrent region workers")
	tagCmd.Flags().DurationVar(&tagRetry, "retry", 0, "Retry failed mutations for up to this duration")
	tagCmd.Flags().StringVarP(&tagOutput, "output", "o", "table", "Output format: table, json")
}

func runTag(cmd *cobra.Command, args []string) error {
	if err := validateOutput(tagOutput); err != nil {
		return err
	}

	tags, err := tagSet()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := awsecr.New(ctx, logger)
	if err != nil {
		return err
	}

	var mutator sweep.Mutator = awsecr.NewTagMutator(client.ECR(), tags)
	if tagRetry > 0 {
		mutator = sweep.WithRetry(mutator, tagRetry)
	}

	coordinator := sweep.New(client, client, sweep.HasNoTags(), mutator,
		sweepOptions(tagPrefix, tagRegion, tagApply, tagWorkers), logger)

	return renderReport(os.Stdout, coordinator.Run(ctx), tagOutput)
}

// tagSet resolves the tag set from flags, falling back to config.
func tagSet() (types.TagSet, error) {
	if len(tagTags) > 0 {
		return types.ParseTagSet(tagTags)
	}
	if len(cfg.Tags) > 0 {
		return types.TagSet(cfg.Tags), nil
	}
	return nil, fmt.Errorf("at least one tag required (--tag KEY=VALUE or tags in config)")
}

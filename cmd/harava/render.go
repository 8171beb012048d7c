package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/yairfalse/harava/sweep"
)

var validOutputs = []string{"table", "json"}

// validateOutput rejects unknown output formats before any provider
// call is made.
func validateOutput(format string) error {
	if !slices.Contains(validOutputs, format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			format, strings.Join(validOutputs, ", "))
	}
	return nil
}

// renderReport writes a finished sweep report as a table or JSON.
func renderReport(w io.Writer, report *sweep.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	mode := "apply"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "sweep: %s (prefix %q, %s)\n\n", report.Mutation, report.Prefix, mode)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tRESOURCE\tOUTCOME\tERROR")
	for _, res := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", res.Region, res.Name, res.Outcome, res.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	c := report.Counts()
	fmt.Fprintf(w, "\nfound=%d applied=%d would_apply=%d skipped=%d failed=%d\n",
		c.Candidates, c.Applied, c.WouldApply, c.Skipped, c.Failed)

	for _, failure := range report.RegionFailures {
		fmt.Fprintf(w, "region %s not swept: %s\n", failure.Region, failure.Error)
	}
	return nil
}

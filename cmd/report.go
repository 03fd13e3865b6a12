package cmd

import (
	"github.com/huangsam/actionstat/core"
	"github.com/huangsam/actionstat/internal"
	"github.com/spf13/cobra"
)

// reportCmd aggregates stored runs into weekly performance metrics.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report weekly performance metrics from stored runs.",
	Long: `Aggregate stored workflow runs into weekly metrics and render them.

For each ISO week in the analysis window the report shows run counts,
success rates, duration percentiles (P50/P95/P99) and outlier counts, at
workflow, job and step granularity, plus commit-scoped flakiness scores
per job.

Reporting works entirely from local storage; run 'fetch' first.

Examples:
  # Print weekly tables to the terminal
  actionstat report --owner octocat --repo hello-world --workflow ci.yml

  # Export the full report as JSON
  actionstat report --owner octocat --repo hello-world --workflow ci.yml --output json

  # Export job and step metrics as CSV for spreadsheets
  actionstat report --owner octocat --repo hello-world --workflow ci.yml --output csv --output-dir ./reports`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg); err != nil {
			internal.FatalError("Cannot generate report", err)
		}
	},
}

// analyzeCmd runs fetch and report back to back.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch run history and report on it in one step.",
	Long: `Run 'fetch' followed by 'report' in a single invocation.

Examples:
  # Fetch and report the default four weeks
  actionstat analyze --owner octocat --repo hello-world --workflow ci.yml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg); err != nil {
			internal.FatalError("Cannot analyze workflow runs", err)
		}
	},
}

package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeReportTables renders the weekly workflow table, the per-job table and
// the flakiness table in sequence, followed by summary lines.
func writeReportTables(w io.Writer, result *schema.AggregationResult, cfg *contract.Config, duration time.Duration) error {
	if len(result.Overall) == 0 {
		fmt.Fprintf(w, "No completed runs for workflow %s between %s and %s\n",
			result.WorkflowID,
			result.Start.Format(contract.DateTimeFormat),
			result.End.Format(contract.DateTimeFormat))
		return nil
	}

	if err := writeWeeklyTable(w, result.Overall, cfg); err != nil {
		return err
	}
	if err := writeGroupTable(w, "Job metrics", result.Jobs, cfg); err != nil {
		return err
	}
	if len(result.Matrix) > 0 {
		if err := writeGroupTable(w, "Matrix metrics", result.Matrix, cfg); err != nil {
			return err
		}
	}
	if err := writeFlakinessTable(w, result.Flakiness); err != nil {
		return err
	}

	if result.SkippedRecords > 0 {
		fmt.Fprintf(w, "Skipped %d records with missing or malformed timestamps\n", result.SkippedRecords)
	}
	fmt.Fprintf(w, "Report for %s completed in %v. Store backend: %s\n", result.WorkflowID, duration, cfg.StoreBackend)
	return nil
}

// writeWeeklyTable prints one row per week with workflow-level metrics.
func writeWeeklyTable(w io.Writer, rows []schema.MetricRow, cfg *contract.Config) error {
	fmt.Fprintln(w, "Workflow metrics by week:")
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Week", "Runs", "Success", "Health", "P50", "P95", "P99", "Outliers"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			r.Bucket,
			strconv.Itoa(r.TotalRuns),
			fmt.Sprintf("%.1f%%", r.SuccessRatePercent),
			label(r.SuccessRatePercent),
			durationCell(r.Durations, func(d *schema.DurationStats) float64 { return d.P50MS }),
			durationCell(r.Durations, func(d *schema.DurationStats) float64 { return d.P95MS }),
			durationCell(r.Durations, func(d *schema.DurationStats) float64 { return d.P99MS }),
			outlierCell(r.Durations),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeGroupTable prints job-level or matrix-level metric rows.
func writeGroupTable(w io.Writer, title string, rows []schema.MetricRow, cfg *contract.Config) error {
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintf(w, "%s by week:\n", title)
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Week", "Name", "Runs", "Success", "Health", "P50", "P95"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}
	maxWidth := getMaxNameWidth()

	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			r.Bucket,
			truncateName(groupLabel(r), maxWidth),
			strconv.Itoa(r.TotalRuns),
			fmt.Sprintf("%.1f%%", r.SuccessRatePercent),
			label(r.SuccessRatePercent),
			durationCell(r.Durations, func(d *schema.DurationStats) float64 { return d.P50MS }),
			durationCell(r.Durations, func(d *schema.DurationStats) float64 { return d.P95MS }),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeFlakinessTable prints commit-scoped flakiness scores per job name.
func writeFlakinessTable(w io.Writer, flakiness []schema.JobFlakiness) error {
	if len(flakiness) == 0 {
		fmt.Fprintln(w, "No flaky jobs detected in the analysis window")
		return nil
	}
	fmt.Fprintln(w, "Flakiness by job:")
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Job", "Flaky commits", "Commits", "Score"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := getMaxNameWidth()
	var data [][]string
	for _, f := range flakiness {
		data = append(data, []string{
			truncateName(f.JobName, maxWidth),
			strconv.Itoa(f.FlakyCommits),
			strconv.Itoa(f.DistinctCommits),
			fmt.Sprintf("%.3f", f.Score),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// durationCell formats a percentile for table display, or a dash when no
// record in the group carried a usable duration.
func durationCell(d *schema.DurationStats, pick func(*schema.DurationStats) float64) string {
	if d == nil {
		return "-"
	}
	return contract.FormatMillis(pick(d))
}

func outlierCell(d *schema.DurationStats) string {
	if d == nil {
		return "-"
	}
	return strconv.Itoa(d.OutlierCount)
}

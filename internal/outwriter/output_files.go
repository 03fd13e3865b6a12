package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
)

// writeJSONReport writes the full aggregation result as one JSON document
// under the output directory.
func writeJSONReport(result *schema.AggregationResult, cfg *contract.Config) error {
	path, err := reportPath(cfg, "_performance_report.json")
	if err != nil {
		return err
	}
	return writeWithFile(path, func(w io.Writer) error {
		return writeJSON(w, result)
	}, "Wrote JSON performance report")
}

// writeCSVReports writes job metrics and step metrics to separate CSV files
// under the output directory.
func writeCSVReports(result *schema.AggregationResult, cfg *contract.Config) error {
	jobPath, err := reportPath(cfg, "_job_metrics.csv")
	if err != nil {
		return err
	}
	if err := writeWithFile(jobPath, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVMetricRows(csvWriter, result.Jobs)
	}, "Wrote CSV job metrics"); err != nil {
		return err
	}

	stepPath, err := reportPath(cfg, "_step_metrics.csv")
	if err != nil {
		return err
	}
	return writeWithFile(stepPath, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVMetricRows(csvWriter, result.Steps)
	}, "Wrote CSV step metrics")
}

// writeCSVMetricRows writes one header row followed by one row per metric
// bucket. Percentile columns are blank when the group had no usable durations.
func writeCSVMetricRows(w *csv.Writer, rows []schema.MetricRow) error {
	header := []string{
		"bucket",
		"bucket_start",
		"job_name",
		"step_name",
		"matrix_config",
		"total_runs",
		"in_progress",
		"success_rate_percent",
		"failure_rate_percent",
		"health",
		"p50_ms",
		"p95_ms",
		"p99_ms",
		"avg_ms",
		"outlier_count",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Bucket,
			r.BucketStart.Format(contract.DateTimeFormat),
			r.JobName,
			r.StepName,
			r.Matrix,
			strconv.Itoa(r.TotalRuns),
			strconv.Itoa(r.InProgress),
			fmt.Sprintf("%.2f", r.SuccessRatePercent),
			fmt.Sprintf("%.2f", r.FailureRatePercent),
			contract.GetPlainLabel(r.SuccessRatePercent),
		}
		if r.Durations != nil {
			row = append(row,
				fmt.Sprintf("%.1f", r.Durations.P50MS),
				fmt.Sprintf("%.1f", r.Durations.P95MS),
				fmt.Sprintf("%.1f", r.Durations.P99MS),
				fmt.Sprintf("%.1f", r.Durations.AvgMS),
				strconv.Itoa(r.Durations.OutlierCount),
			)
		} else {
			row = append(row, "", "", "", "", "")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

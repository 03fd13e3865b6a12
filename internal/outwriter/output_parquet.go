package outwriter

import (
	"fmt"
	"os"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/internal/parquet"
	"github.com/huangsam/actionstat/schema"
)

// writeParquetReports writes one Parquet file per grouping dimension plus one
// for flakiness, all under the output directory.
func writeParquetReports(result *schema.AggregationResult, cfg *contract.Config) error {
	exports := []struct {
		suffix string
		rows   []schema.MetricRow
	}{
		{"_workflow_metrics.parquet", result.Overall},
		{"_job_metrics.parquet", result.Jobs},
		{"_step_metrics.parquet", result.Steps},
	}
	for _, export := range exports {
		path, err := reportPath(cfg, export.suffix)
		if err != nil {
			return err
		}
		if err := parquet.WriteMetricRecords(parquet.ConvertMetricRows(export.rows), path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Parquet metrics to %s\n", path)
	}

	path, err := reportPath(cfg, "_flakiness.parquet")
	if err != nil {
		return err
	}
	if err := parquet.WriteFlakinessRecords(parquet.ConvertFlakiness(result.Flakiness), path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet flakiness to %s\n", path)
	return nil
}

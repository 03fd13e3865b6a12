// Package parquet exports aggregated workflow metrics to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/actionstat/schema"
	"github.com/parquet-go/parquet-go"
)

// MetricRecord is one aggregation bucket flattened for columnar export. One
// file holds rows for a single grouping dimension (workflow, job or step).
type MetricRecord struct {
	// Bucket is the ISO week label, e.g. "2026-W08"
	Bucket string `parquet:"bucket,snappy"`

	// BucketStart is the Monday 00:00 UTC start of the week (TIMESTAMP with nanosecond precision)
	BucketStart time.Time `parquet:"bucket_start,snappy"`

	// JobName is empty for workflow-level rows
	JobName *string `parquet:"job_name,optional,snappy"`

	// StepName is set only for step-level rows
	StepName *string `parquet:"step_name,optional,snappy"`

	// Matrix is the canonical matrix serialization (nullable)
	Matrix *string `parquet:"matrix_config,optional,snappy"`

	TotalRuns  int32 `parquet:"total_runs,snappy"`
	InProgress int32 `parquet:"in_progress,snappy"`

	SuccessRatePercent float64 `parquet:"success_rate_percent,snappy"`
	FailureRatePercent float64 `parquet:"failure_rate_percent,snappy"`

	// Percentile columns are nullable: absent when the bucket carried no
	// usable durations
	P50Ms *float64 `parquet:"p50_ms,optional,snappy"`
	P95Ms *float64 `parquet:"p95_ms,optional,snappy"`
	P99Ms *float64 `parquet:"p99_ms,optional,snappy"`
	AvgMs *float64 `parquet:"avg_ms,optional,snappy"`

	OutlierCount int32 `parquet:"outlier_count,snappy"`
}

// FlakinessRecord is one job's commit-scoped flakiness over the window.
type FlakinessRecord struct {
	JobName         string  `parquet:"job_name,snappy"`
	FlakyCommits    int32   `parquet:"flaky_commits,snappy"`
	DistinctCommits int32   `parquet:"distinct_commits,snappy"`
	Score           float64 `parquet:"flakiness_score,snappy"`
}

// WriteMetricRecords writes a slice of MetricRecord structs to a Parquet file.
func WriteMetricRecords(data []MetricRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema is inferred from the MetricRecord struct tags
	writer := parquet.NewGenericWriter[MetricRecord](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// WriteFlakinessRecords writes a slice of FlakinessRecord structs to a Parquet file.
func WriteFlakinessRecords(data []FlakinessRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[FlakinessRecord](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}

// ConvertMetricRows converts schema.MetricRow values to MetricRecord for Parquet export.
func ConvertMetricRows(rows []schema.MetricRow) []MetricRecord {
	result := make([]MetricRecord, len(rows))
	for i, row := range rows {
		rec := MetricRecord{
			Bucket:             row.Bucket,
			BucketStart:        row.BucketStart,
			JobName:            optionalString(row.JobName),
			StepName:           optionalString(row.StepName),
			Matrix:             optionalString(row.Matrix),
			TotalRuns:          int32(row.TotalRuns),
			InProgress:         int32(row.InProgress),
			SuccessRatePercent: row.SuccessRatePercent,
			FailureRatePercent: row.FailureRatePercent,
		}
		if d := row.Durations; d != nil {
			p50, p95, p99, avg := d.P50MS, d.P95MS, d.P99MS, d.AvgMS
			rec.P50Ms = &p50
			rec.P95Ms = &p95
			rec.P99Ms = &p99
			rec.AvgMs = &avg
			rec.OutlierCount = int32(d.OutlierCount)
		}
		result[i] = rec
	}
	return result
}

// ConvertFlakiness converts schema.JobFlakiness values to FlakinessRecord for Parquet export.
func ConvertFlakiness(flakiness []schema.JobFlakiness) []FlakinessRecord {
	result := make([]FlakinessRecord, len(flakiness))
	for i, f := range flakiness {
		result[i] = FlakinessRecord{
			JobName:         f.JobName,
			FlakyCommits:    int32(f.FlakyCommits),
			DistinctCommits: int32(f.DistinctCommits),
			Score:           f.Score,
		}
	}
	return result
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

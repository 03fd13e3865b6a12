package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *schema.AggregationResult {
	weekStart := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	return &schema.AggregationResult{
		WorkflowID: "ci.yml",
		Start:      weekStart,
		End:        weekStart.AddDate(0, 0, 14),
		Overall: []schema.MetricRow{
			{
				Bucket:      "2026-W08",
				BucketStart: weekStart,
				GroupMetrics: schema.GroupMetrics{
					TotalRuns:          10,
					Counts:             map[schema.Conclusion]int{schema.ConclusionSuccess: 9, schema.ConclusionFailure: 1},
					SuccessRatePercent: 90.0,
					FailureRatePercent: 10.0,
					Durations: &schema.DurationStats{
						Count: 10, MinMS: 60000, MaxMS: 300000, AvgMS: 120000,
						P50MS: 110000, P95MS: 280000, P99MS: 300000, OutlierCount: 1,
					},
				},
			},
		},
		Jobs: []schema.MetricRow{
			{
				Bucket:      "2026-W08",
				BucketStart: weekStart,
				JobName:     "test",
				GroupMetrics: schema.GroupMetrics{
					TotalRuns:          10,
					SuccessRatePercent: 100.0,
					Durations: &schema.DurationStats{
						Count: 10, P50MS: 90000, P95MS: 95000, P99MS: 95000,
					},
				},
			},
		},
		Steps: []schema.MetricRow{
			{
				Bucket:      "2026-W08",
				BucketStart: weekStart,
				JobName:     "test",
				StepName:    "Run tests",
				GroupMetrics: schema.GroupMetrics{
					TotalRuns:          10,
					SuccessRatePercent: 100.0,
				},
			},
		},
		Flakiness: []schema.JobFlakiness{
			{JobName: "test", FlakyCommits: 2, DistinctCommits: 8, Score: 0.25},
		},
	}
}

func TestWriteReportTables(t *testing.T) {
	cfg := &contract.Config{
		Output:       schema.TableOut,
		StoreBackend: schema.SQLiteBackend,
		UseColors:    false,
	}

	var buf bytes.Buffer
	err := writeReportTables(&buf, sampleResult(), cfg, 100*time.Millisecond)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "2026-W08")
	assert.Contains(t, output, "90.0%")
	assert.Contains(t, output, "Unsteady")
	assert.Contains(t, output, "Job metrics by week")
	assert.Contains(t, output, "0.250")
	assert.Contains(t, output, "Report for ci.yml completed in 100ms")
}

func TestWriteReportTablesEmpty(t *testing.T) {
	cfg := &contract.Config{Output: schema.TableOut, StoreBackend: schema.SQLiteBackend}
	result := &schema.AggregationResult{
		WorkflowID: "ci.yml",
		Start:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	err := writeReportTables(&buf, result, cfg, time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No completed runs for workflow ci.yml")
}

func TestWriteReportTablesMissingDurations(t *testing.T) {
	cfg := &contract.Config{Output: schema.TableOut, StoreBackend: schema.SQLiteBackend}
	result := sampleResult()
	result.Overall[0].Durations = nil
	result.SkippedRecords = 3

	var buf bytes.Buffer
	err := writeReportTables(&buf, result, cfg, time.Millisecond)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "-")
	assert.Contains(t, output, "Skipped 3 records")
}

func TestWriteJSONReportFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &contract.Config{
		WorkflowID: "ci.yml",
		OutputDir:  dir,
		Output:     schema.JSONOut,
	}

	require.NoError(t, writeJSONReport(sampleResult(), cfg))

	data, err := os.ReadFile(filepath.Join(dir, "ci_yml_performance_report.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ci.yml", decoded["workflow_id"])

	overall, ok := decoded["overall_workflow_metrics"].([]any)
	require.True(t, ok)
	require.Len(t, overall, 1)
	row := overall[0].(map[string]any)
	assert.Equal(t, "2026-W08", row["bucket"])
	assert.Equal(t, 90.0, row["success_rate_percent"])
}

func TestWriteCSVReportFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &contract.Config{
		WorkflowID: "ci.yml",
		OutputDir:  dir,
		Output:     schema.CSVOut,
	}

	require.NoError(t, writeCSVReports(sampleResult(), cfg))

	jobData, err := os.ReadFile(filepath.Join(dir, "ci_yml_job_metrics.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(jobData)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "p50_ms")
	assert.Contains(t, lines[1], "test")
	assert.Contains(t, lines[1], "90000.0")

	stepData, err := os.ReadFile(filepath.Join(dir, "ci_yml_step_metrics.csv"))
	require.NoError(t, err)
	stepLines := strings.Split(strings.TrimSpace(string(stepData)), "\n")
	require.Len(t, stepLines, 2)
	assert.Contains(t, stepLines[1], "Run tests")
}

func TestWriteCSVMetricRowsNoDurations(t *testing.T) {
	rows := []schema.MetricRow{
		{
			Bucket:      "2026-W08",
			BucketStart: time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC),
			JobName:     "deploy",
			GroupMetrics: schema.GroupMetrics{
				TotalRuns:          2,
				SuccessRatePercent: 100.0,
			},
		},
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, writeCSVMetricRows(w, rows))
	w.Flush()

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Percentile columns stay blank when the group had no usable durations
	header, row := records[0], records[1]
	for i, name := range header {
		if name == "p50_ms" || name == "p95_ms" || name == "p99_ms" {
			assert.Empty(t, row[i])
		}
	}
}

func TestReportPathSanitizesWorkflowID(t *testing.T) {
	dir := t.TempDir()
	cfg := &contract.Config{WorkflowID: "release/deploy.yml", OutputDir: dir}

	path, err := reportPath(cfg, "_performance_report.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "release_deploy_yml_performance_report.json"), path)
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 20))
	assert.Equal(t, "a-very-long-jo...", truncateName("a-very-long-job-name-here", 17))
}

func TestGroupLabel(t *testing.T) {
	row := schema.MetricRow{JobName: "test", StepName: "Build", Matrix: "os=ubuntu-latest"}
	assert.Equal(t, "test / Build / [os=ubuntu-latest]", groupLabel(row))

	assert.Equal(t, "test", groupLabel(schema.MetricRow{JobName: "test"}))
}

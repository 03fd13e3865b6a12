package schema

import "time"

// DurationStats summarizes a set of completed durations in milliseconds.
// Percentiles use rank-based nearest selection; see core/stats.
type DurationStats struct {
	Count        int     `json:"count"`
	MinMS        int64   `json:"min_ms"`
	MaxMS        int64   `json:"max_ms"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        float64 `json:"p50_ms"`
	P95MS        float64 `json:"p95_ms"`
	P99MS        float64 `json:"p99_ms"`
	OutlierCount int     `json:"outlier_count"`
}

// GroupMetrics holds conclusion counts and duration statistics for one
// grouping (overall, a job name, a step, or a matrix config) in one bucket.
type GroupMetrics struct {
	TotalRuns  int                `json:"total_runs"`
	InProgress int                `json:"in_progress"`
	Counts     map[Conclusion]int `json:"conclusion_counts"`

	SuccessRatePercent float64 `json:"success_rate_percent"`
	FailureRatePercent float64 `json:"failure_rate_percent"`

	// AvgByConclusion maps a conclusion to the mean duration of records that
	// finished with it. Conclusions with no usable duration are absent.
	AvgByConclusion map[Conclusion]float64 `json:"avg_duration_ms_by_conclusion"`

	// Durations is nil when no record in the group carried a usable duration;
	// percentiles are omitted rather than reported as zero.
	Durations *DurationStats `json:"duration_stats,omitempty"`
}

// MetricRow is one aggregation bucket for one grouping dimension. Buckets are
// derived views, recomputed on demand and never stored.
type MetricRow struct {
	Bucket      string    `json:"bucket"` // ISO week label, e.g. "2026-W08"
	BucketStart time.Time `json:"bucket_start"`

	JobName  string `json:"job_name,omitempty"`
	StepName string `json:"step_name,omitempty"`
	Matrix   string `json:"matrix_config,omitempty"` // canonical serialization

	GroupMetrics
}

// JobFlakiness reports commit-scoped flakiness for one job name across the
// analysis window: a commit is flaky when its attempts on the same workflow
// and branch include both a success and a failure.
type JobFlakiness struct {
	JobName         string  `json:"job_name"`
	FlakyCommits    int     `json:"flaky_commits"`
	DistinctCommits int     `json:"distinct_commits"`
	Score           float64 `json:"flakiness_score"`
}

// AggregationResult is the full output of the aggregation engine for one
// workflow snapshot. Row slices are ordered by bucket start, then grouping
// key, so serialized output is deterministic.
type AggregationResult struct {
	WorkflowID string    `json:"workflow_id"`
	Start      time.Time `json:"window_start"`
	End        time.Time `json:"window_end"`

	Overall []MetricRow `json:"overall_workflow_metrics"`
	Jobs    []MetricRow `json:"job_metrics"`
	Steps   []MetricRow `json:"step_metrics"`
	Matrix  []MetricRow `json:"matrix_metrics"`

	Flakiness []JobFlakiness `json:"flakiness"`

	// SkippedRecords counts records excluded from percentile input because of
	// malformed or missing timestamps/durations. Aggregation never aborts on
	// bad input; it degrades and reports the tally.
	SkippedRecords int `json:"skipped_records"`
}

package stats

import (
	"testing"
	"time"

	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrInt64(v int64) *int64 { return &v }

func ptrTime(t time.Time) *time.Time { return &t }

func makeRun(id int64, created time.Time, conclusion schema.Conclusion, durationMS *int64) schema.WorkflowRun {
	return schema.WorkflowRun{
		ID:         id,
		WorkflowID: "ci.yml",
		HeadBranch: "main",
		HeadSHA:    "sha-" + string(rune('a'+id)),
		Status:     "completed",
		Conclusion: conclusion,
		CreatedAt:  created,
		DurationMS: durationMS,
	}
}

func snapshotOf(runs ...schema.WorkflowRun) *schema.Snapshot {
	return &schema.Snapshot{
		WorkflowID: "ci.yml",
		Start:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Runs:       runs,
	}
}

func TestWeekStart(t *testing.T) {
	// 2026-02-18 is a Wednesday; its ISO week opens Monday 2026-02-16.
	wed := time.Date(2026, 2, 18, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC), WeekStart(wed))

	mon := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, WeekStart(mon))

	sun := time.Date(2026, 2, 22, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, mon, WeekStart(sun))
}

func TestWeekLabel(t *testing.T) {
	assert.Equal(t, "2026-W08", WeekLabel(time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)))
	// January 1st 2027 falls in ISO week 53 of 2026.
	assert.Equal(t, "2026-W53", WeekLabel(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAggregateBucketsByWeek(t *testing.T) {
	week1 := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	week2 := time.Date(2026, 2, 23, 10, 0, 0, 0, time.UTC)

	result := Aggregate(snapshotOf(
		makeRun(1, week1, schema.ConclusionSuccess, ptrInt64(1000)),
		makeRun(2, week1.Add(time.Hour), schema.ConclusionFailure, ptrInt64(2000)),
		// Nothing in the week between; no empty bucket may appear.
		makeRun(3, week2.AddDate(0, 0, 7), schema.ConclusionSuccess, ptrInt64(3000)),
	))

	require.Len(t, result.Overall, 2)
	assert.Equal(t, "2026-W08", result.Overall[0].Bucket)
	assert.Equal(t, "2026-W10", result.Overall[1].Bucket)

	first := result.Overall[0]
	assert.Equal(t, 2, first.TotalRuns)
	assert.Equal(t, 1, first.Counts[schema.ConclusionSuccess])
	assert.Equal(t, 1, first.Counts[schema.ConclusionFailure])
	assert.Equal(t, 50.0, first.SuccessRatePercent)
	assert.Equal(t, 50.0, first.FailureRatePercent)
	require.NotNil(t, first.Durations)
	assert.Equal(t, 2, first.Durations.Count)
	assert.Equal(t, int64(1000), first.Durations.MinMS)
	assert.Equal(t, int64(2000), first.Durations.MaxMS)
}

func TestAggregateInProgressSeparate(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	inProgress := makeRun(2, created, schema.ConclusionNone, nil)
	inProgress.Status = "in_progress"

	result := Aggregate(snapshotOf(
		makeRun(1, created, schema.ConclusionSuccess, ptrInt64(1000)),
		inProgress,
	))

	require.Len(t, result.Overall, 1)
	row := result.Overall[0]
	assert.Equal(t, 2, row.TotalRuns)
	assert.Equal(t, 1, row.InProgress)
	assert.Equal(t, 100.0, row.SuccessRatePercent, "in-progress runs must not dilute the success rate")
	assert.Zero(t, result.SkippedRecords, "in-progress runs are not skipped records")
}

func TestAggregateMissingDurations(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	result := Aggregate(snapshotOf(
		makeRun(1, created, schema.ConclusionSuccess, ptrInt64(1000)),
		makeRun(2, created, schema.ConclusionFailure, nil),
	))

	require.Len(t, result.Overall, 1)
	row := result.Overall[0]
	assert.Equal(t, 1, row.Counts[schema.ConclusionFailure], "records without durations still count toward conclusions")
	require.NotNil(t, row.Durations)
	assert.Equal(t, 1, row.Durations.Count, "missing durations must not enter percentile input")
	assert.Equal(t, 1, result.SkippedRecords)
}

func TestAggregateNoDurationsOmitsStats(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	result := Aggregate(snapshotOf(makeRun(1, created, schema.ConclusionSuccess, nil)))

	require.Len(t, result.Overall, 1)
	assert.Nil(t, result.Overall[0].Durations, "a group with no durations reports none rather than zeros")
}

func TestAggregateRunDurationFallback(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	run := makeRun(1, created, schema.ConclusionSuccess, nil)
	run.Jobs = []schema.Job{{
		ID: 11, RunID: 1, Name: "build", Conclusion: schema.ConclusionSuccess,
		StartedAt:   ptrTime(created),
		CompletedAt: ptrTime(created.Add(5 * time.Minute)),
		DurationMS:  ptrInt64(300_000),
	}}

	result := Aggregate(snapshotOf(run))
	require.NotNil(t, result.Overall[0].Durations)
	assert.Equal(t, int64(300_000), result.Overall[0].Durations.MinMS, "run duration falls back to job extremes")
}

func TestAggregateAvgByConclusion(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	result := Aggregate(snapshotOf(
		makeRun(1, created, schema.ConclusionSuccess, ptrInt64(1000)),
		makeRun(2, created, schema.ConclusionSuccess, ptrInt64(3000)),
		makeRun(3, created, schema.ConclusionFailure, ptrInt64(500)),
	))

	avg := result.Overall[0].AvgByConclusion
	assert.Equal(t, 2000.0, avg[schema.ConclusionSuccess])
	assert.Equal(t, 500.0, avg[schema.ConclusionFailure])
}

func TestAggregateJobAndStepGroups(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	run := makeRun(1, created, schema.ConclusionSuccess, ptrInt64(1000))
	run.Jobs = []schema.Job{
		{
			ID: 11, RunID: 1, Name: "build", Conclusion: schema.ConclusionSuccess,
			DurationMS: ptrInt64(400),
			Steps: []schema.Step{
				{JobID: 11, Name: "compile", Number: 1, Conclusion: schema.ConclusionSuccess, DurationMS: ptrInt64(300)},
			},
		},
		{
			ID: 12, RunID: 1, Name: "test", Conclusion: schema.ConclusionFailure,
			DurationMS: ptrInt64(600),
		},
	}

	result := Aggregate(snapshotOf(run))

	require.Len(t, result.Jobs, 2)
	assert.Equal(t, "build", result.Jobs[0].JobName)
	assert.Equal(t, "test", result.Jobs[1].JobName)

	require.Len(t, result.Steps, 1)
	assert.Equal(t, "build", result.Steps[0].JobName)
	assert.Equal(t, "compile", result.Steps[0].StepName)
	require.NotNil(t, result.Steps[0].Durations)
	assert.Equal(t, int64(300), result.Steps[0].Durations.MinMS)
}

func TestAggregateMatrixKeyOrderInvariance(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	run := makeRun(1, created, schema.ConclusionSuccess, ptrInt64(1000))
	run.Jobs = []schema.Job{
		{
			ID: 11, RunID: 1, Name: "test", Conclusion: schema.ConclusionSuccess,
			DurationMS: ptrInt64(400),
			Matrix:     schema.ParseMatrixConfig("os=linux,python=3.12"),
		},
		{
			ID: 12, RunID: 1, Name: "test", Conclusion: schema.ConclusionSuccess,
			DurationMS: ptrInt64(600),
			Matrix:     schema.ParseMatrixConfig("python=3.12,os=linux"),
		},
	}

	result := Aggregate(snapshotOf(run))

	require.Len(t, result.Matrix, 1, "key order must not split matrix groups")
	assert.Equal(t, "os=linux,python=3.12", result.Matrix[0].Matrix)
	assert.Equal(t, 2, result.Matrix[0].TotalRuns)
}

func TestFlakinessCommitScoped(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	flakyJob := func(runID int64, sha string, conclusion schema.Conclusion) schema.WorkflowRun {
		run := makeRun(runID, created, conclusion, ptrInt64(1000))
		run.HeadSHA = sha
		run.Jobs = []schema.Job{{ID: runID * 10, RunID: runID, Name: "integration", Conclusion: conclusion}}
		return run
	}

	result := Aggregate(snapshotOf(
		// Same commit: fails then passes on rerun. Flaky.
		flakyJob(1, "sha-flaky", schema.ConclusionFailure),
		flakyJob(2, "sha-flaky", schema.ConclusionSuccess),
		// Different commit failing consistently. Not flaky.
		flakyJob(3, "sha-broken", schema.ConclusionFailure),
	))

	require.Len(t, result.Flakiness, 1)
	f := result.Flakiness[0]
	assert.Equal(t, "integration", f.JobName)
	assert.Equal(t, 2, f.DistinctCommits)
	assert.Equal(t, 1, f.FlakyCommits)
	assert.Equal(t, 0.5, f.Score)
}

func TestFlakinessBranchScoped(t *testing.T) {
	created := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	runOn := func(runID int64, branch string, conclusion schema.Conclusion) schema.WorkflowRun {
		run := makeRun(runID, created, conclusion, ptrInt64(1000))
		run.HeadBranch = branch
		run.HeadSHA = "same-sha"
		run.Jobs = []schema.Job{{ID: runID * 10, RunID: runID, Name: "test", Conclusion: conclusion}}
		return run
	}

	result := Aggregate(snapshotOf(
		runOn(1, "main", schema.ConclusionSuccess),
		runOn(2, "feature", schema.ConclusionFailure),
	))

	require.Len(t, result.Flakiness, 1)
	f := result.Flakiness[0]
	assert.Equal(t, 0, f.FlakyCommits, "the same SHA on different branches must not compare outcomes")
	assert.Equal(t, 2, f.DistinctCommits)
}

func TestAggregateDeterministic(t *testing.T) {
	week := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	snapshot := snapshotOf(
		makeRun(1, week, schema.ConclusionSuccess, ptrInt64(1000)),
		makeRun(2, week, schema.ConclusionFailure, ptrInt64(2000)),
		makeRun(3, week.AddDate(0, 0, 7), schema.ConclusionSuccess, ptrInt64(3000)),
	)

	first := Aggregate(snapshot)
	second := Aggregate(snapshot)
	assert.Equal(t, first, second, "aggregation must be a pure function of the snapshot")
}

func TestAggregateEmptySnapshot(t *testing.T) {
	result := Aggregate(snapshotOf())
	assert.Empty(t, result.Overall)
	assert.Empty(t, result.Jobs)
	assert.Empty(t, result.Flakiness)
	assert.Zero(t, result.SkippedRecords)
}

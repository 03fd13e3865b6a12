// Package stats is the aggregation engine turning run snapshots into
// weekly performance metrics. Everything here is pure computation: no I/O,
// no clocks, identical input yields identical output.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/actionstat/schema"
)

// groupKey identifies one aggregation group. Rows are bucketed by ISO week
// and split by job name, step name and matrix config as applicable.
type groupKey struct {
	bucketStart time.Time
	jobName     string
	stepName    string
	matrix      string
}

// accum gathers one group's records before finalization.
type accum struct {
	total      int
	inProgress int
	counts     map[schema.Conclusion]int
	durations  []int64
	sums       map[schema.Conclusion]*sumCount
}

type sumCount struct {
	sum int64
	n   int
}

func newAccum() *accum {
	return &accum{
		counts: make(map[schema.Conclusion]int),
		sums:   make(map[schema.Conclusion]*sumCount),
	}
}

// record is the unit of accumulation shared by runs, jobs and steps.
type record struct {
	conclusion schema.Conclusion
	duration   *int64
}

// add accumulates one record and reports whether its duration was unusable.
func (a *accum) add(r record) (skipped bool) {
	a.total++
	if !r.conclusion.Terminal() {
		a.inProgress++
		return false
	}
	a.counts[r.conclusion]++
	if r.duration == nil {
		return true
	}
	a.durations = append(a.durations, *r.duration)
	sc := a.sums[r.conclusion]
	if sc == nil {
		sc = &sumCount{}
		a.sums[r.conclusion] = sc
	}
	sc.sum += *r.duration
	sc.n++
	return false
}

func (a *accum) finalize() schema.GroupMetrics {
	m := schema.GroupMetrics{
		TotalRuns:  a.total,
		InProgress: a.inProgress,
		Counts:     a.counts,
	}

	var terminal int
	for _, n := range a.counts {
		terminal += n
	}
	if terminal > 0 {
		m.SuccessRatePercent = float64(a.counts[schema.ConclusionSuccess]) / float64(terminal) * 100
		m.FailureRatePercent = float64(a.counts[schema.ConclusionFailure]) / float64(terminal) * 100
	}

	if len(a.sums) > 0 {
		m.AvgByConclusion = make(map[schema.Conclusion]float64, len(a.sums))
		for c, sc := range a.sums {
			m.AvgByConclusion[c] = float64(sc.sum) / float64(sc.n)
		}
	}

	if len(a.durations) > 0 {
		minV, maxV, avg := summarize(a.durations)
		m.Durations = &schema.DurationStats{
			Count:        len(a.durations),
			MinMS:        minV,
			MaxMS:        maxV,
			AvgMS:        avg,
			P50MS:        Percentile(a.durations, 0.50),
			P95MS:        Percentile(a.durations, 0.95),
			P99MS:        Percentile(a.durations, 0.99),
			OutlierCount: countOutliers(a.durations),
		}
	}
	return m
}

// WeekStart returns the Monday 00:00 UTC that opens t's ISO week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -daysSinceMonday)
}

// WeekLabel returns the ISO week label for t, like "2026-W08".
func WeekLabel(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Aggregate computes weekly metrics for the snapshot across four grouping
// dimensions plus per-job flakiness. Only weeks that contain at least one
// run appear; empty buckets are never emitted.
func Aggregate(snapshot *schema.Snapshot) *schema.AggregationResult {
	result := &schema.AggregationResult{
		WorkflowID: snapshot.WorkflowID,
		Start:      snapshot.Start,
		End:        snapshot.End,
	}

	overall := make(map[groupKey]*accum)
	jobs := make(map[groupKey]*accum)
	steps := make(map[groupKey]*accum)
	matrix := make(map[groupKey]*accum)

	accumulate := func(groups map[groupKey]*accum, key groupKey, r record) {
		a := groups[key]
		if a == nil {
			a = newAccum()
			groups[key] = a
		}
		if a.add(r) {
			result.SkippedRecords++
		}
	}

	for _, run := range snapshot.Runs {
		week := WeekStart(run.CreatedAt)

		runDuration := run.DurationMS
		if runDuration == nil {
			if d, ok := run.ComputeDuration(); ok {
				runDuration = &d
			}
		}
		accumulate(overall, groupKey{bucketStart: week}, record{run.Conclusion, runDuration})

		for _, job := range run.Jobs {
			jr := record{job.Conclusion, job.DurationMS}
			accumulate(jobs, groupKey{bucketStart: week, jobName: job.Name}, jr)
			if job.Matrix != nil {
				accumulate(matrix, groupKey{bucketStart: week, jobName: job.Name, matrix: job.Matrix.Canonical()}, jr)
			}
			for _, step := range job.Steps {
				accumulate(steps, groupKey{bucketStart: week, jobName: job.Name, stepName: step.Name},
					record{step.Conclusion, step.DurationMS})
			}
		}
	}

	result.Overall = finalizeRows(overall)
	result.Jobs = finalizeRows(jobs)
	result.Steps = finalizeRows(steps)
	result.Matrix = finalizeRows(matrix)
	result.Flakiness = flakiness(snapshot)
	return result
}

// finalizeRows converts accumulated groups into sorted metric rows. Order is
// bucket start, then job name, step name and matrix config, so output is
// stable across runs regardless of map iteration.
func finalizeRows(groups map[groupKey]*accum) []schema.MetricRow {
	rows := make([]schema.MetricRow, 0, len(groups))
	for key, a := range groups {
		rows = append(rows, schema.MetricRow{
			Bucket:       WeekLabel(key.bucketStart),
			BucketStart:  key.bucketStart,
			JobName:      key.jobName,
			StepName:     key.stepName,
			Matrix:       key.matrix,
			GroupMetrics: a.finalize(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.BucketStart.Equal(b.BucketStart) {
			return a.BucketStart.Before(b.BucketStart)
		}
		if a.JobName != b.JobName {
			return a.JobName < b.JobName
		}
		if a.StepName != b.StepName {
			return a.StepName < b.StepName
		}
		return a.Matrix < b.Matrix
	})
	if len(rows) == 0 {
		return nil
	}
	return rows
}

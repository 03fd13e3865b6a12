// Package schema has configs, models and constants for all parts of actionstat.
package schema

import "time"

// WorkflowRun represents one execution of a workflow. It owns zero or more
// jobs and is immutable once a terminal conclusion has been recorded;
// re-ingesting the same run ID replaces the stored record in place.
type WorkflowRun struct {
	ID         int64      `json:"id"`
	WorkflowID string     `json:"workflow_id"` // Workflow file name (e.g. 'ci.yml') or numeric ID
	Name       string     `json:"name"`
	Owner      string     `json:"owner"`
	Repo       string     `json:"repo"`
	HeadBranch string     `json:"head_branch"`
	HeadSHA    string     `json:"head_sha"`
	RunNumber  int        `json:"run_number"`
	Event      string     `json:"event"`
	Status     string     `json:"status"`
	Conclusion Conclusion `json:"conclusion"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DurationMS *int64     `json:"duration_ms"`
	Jobs       []Job      `json:"jobs"`
}

// Job is a unit of work within a run. Names are not unique: matrix strategies
// produce multiple jobs sharing a name, distinguished by Matrix.
type Job struct {
	ID          int64        `json:"id"`
	RunID       int64        `json:"run_id"`
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	Conclusion  Conclusion   `json:"conclusion"`
	StartedAt   *time.Time   `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	DurationMS  *int64       `json:"duration_ms"`
	Matrix      *MatrixConfig `json:"matrix_config"`
	Steps       []Step       `json:"steps"`
}

// Step is an ordered sub-unit of work within a job. Number preserves the
// order the provider reports.
type Step struct {
	JobID       int64      `json:"job_id"`
	Name        string     `json:"name"`
	Number      int        `json:"number"`
	Status      string     `json:"status"`
	Conclusion  Conclusion `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	DurationMS  *int64     `json:"duration_ms"`
}

// Snapshot is an immutable, time-bounded view of stored runs consumed by the
// aggregation engine. Runs are ordered by CreatedAt ascending.
type Snapshot struct {
	WorkflowID string
	Start      time.Time
	End        time.Time
	Runs       []WorkflowRun
}

// Jobs returns all jobs across the snapshot's runs in run order.
func (s *Snapshot) Jobs() []Job {
	var jobs []Job
	for _, run := range s.Runs {
		jobs = append(jobs, run.Jobs...)
	}
	return jobs
}

// ComputeDuration derives a run's duration from the extremes of its jobs'
// start and completion times. Used when the provider does not report a
// duration directly. Returns false when no job carries both timestamps.
func (r *WorkflowRun) ComputeDuration() (int64, bool) {
	var minStart, maxEnd time.Time
	for _, j := range r.Jobs {
		if j.StartedAt != nil && (minStart.IsZero() || j.StartedAt.Before(minStart)) {
			minStart = *j.StartedAt
		}
		if j.CompletedAt != nil && (maxEnd.IsZero() || j.CompletedAt.After(maxEnd)) {
			maxEnd = *j.CompletedAt
		}
	}
	if minStart.IsZero() || maxEnd.IsZero() || maxEnd.Before(minStart) {
		return 0, false
	}
	return maxEnd.Sub(minStart).Milliseconds(), true
}

package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/schema"
)

// QueryRuns implements the RunStore interface. The snapshot covers runs with
// created_at inside [start, end], ordered ascending, with jobs and steps
// attached. The returned value is a copy; later ingestion never mutates it.
func (s *SQLRunStore) QueryRuns(ctx context.Context, workflowID string, start, end time.Time) (*schema.Snapshot, error) {
	snapshot := &schema.Snapshot{
		WorkflowID: workflowID,
		Start:      start,
		End:        end,
	}

	runs := internal.QuoteTableName(runsTable, s.backend)
	query := fmt.Sprintf(`SELECT id, workflow_id, name, owner, repo, head_branch, head_sha,
		run_number, event, status, conclusion, created_at, updated_at, duration_ms
		FROM %s WHERE workflow_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC, id ASC`, runs)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), workflowID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	index := make(map[int64]int)
	for rows.Next() {
		var run schema.WorkflowRun
		var conclusion string
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&run.ID, &run.WorkflowID, &run.Name, &run.Owner, &run.Repo,
			&run.HeadBranch, &run.HeadSHA, &run.RunNumber, &run.Event,
			&run.Status, &conclusion, &createdAt, &updatedAt, &run.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Conclusion = schema.Conclusion(conclusion)
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		run.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		index[run.ID] = len(snapshot.Runs)
		snapshot.Runs = append(snapshot.Runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshot.Runs) == 0 {
		return snapshot, nil
	}

	if err := s.attachJobs(ctx, workflowID, start, end, snapshot, index); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// attachJobs loads jobs and steps for every run in the snapshot.
func (s *SQLRunStore) attachJobs(ctx context.Context, workflowID string, start, end time.Time, snapshot *schema.Snapshot, index map[int64]int) error {
	runs := internal.QuoteTableName(runsTable, s.backend)
	jobs := internal.QuoteTableName(jobsTable, s.backend)
	steps := internal.QuoteTableName(stepsTable, s.backend)

	jobQuery := fmt.Sprintf(`SELECT j.id, j.run_id, j.name, j.status, j.conclusion,
		j.started_at, j.completed_at, j.duration_ms, j.matrix
		FROM %s j JOIN %s r ON j.run_id = r.id
		WHERE r.workflow_id = ? AND r.created_at >= ? AND r.created_at <= ?
		ORDER BY j.run_id ASC, j.id ASC`, jobs, runs)

	rows, err := s.db.QueryContext(ctx, s.rebind(jobQuery), workflowID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to query jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Jobs are collected as individual allocations first so step attachment
	// works off stable pointers, then appended to their runs at the end.
	jobIndex := make(map[int64]*schema.Job)
	var jobOrder []*schema.Job
	for rows.Next() {
		job := new(schema.Job)
		var conclusion string
		var startedAt, completedAt *int64
		var matrix sql.NullString
		if err := rows.Scan(
			&job.ID, &job.RunID, &job.Name, &job.Status, &conclusion,
			&startedAt, &completedAt, &job.DurationMS, &matrix,
		); err != nil {
			return fmt.Errorf("failed to scan job: %w", err)
		}
		job.Conclusion = schema.Conclusion(conclusion)
		job.StartedAt = fromEpochMilli(startedAt)
		job.CompletedAt = fromEpochMilli(completedAt)
		if matrix.Valid {
			job.Matrix = schema.ParseMatrixConfig(matrix.String)
		}

		jobIndex[job.ID] = job
		jobOrder = append(jobOrder, job)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	stepQuery := fmt.Sprintf(`SELECT st.job_id, st.number, st.name, st.status, st.conclusion,
		st.started_at, st.completed_at, st.duration_ms
		FROM %s st
		JOIN %s j ON st.job_id = j.id
		JOIN %s r ON j.run_id = r.id
		WHERE r.workflow_id = ? AND r.created_at >= ? AND r.created_at <= ?
		ORDER BY st.job_id ASC, st.number ASC`, steps, jobs, runs)

	stepRows, err := s.db.QueryContext(ctx, s.rebind(stepQuery), workflowID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to query steps: %w", err)
	}
	defer func() { _ = stepRows.Close() }()

	for stepRows.Next() {
		var step schema.Step
		var conclusion string
		var startedAt, completedAt *int64
		if err := stepRows.Scan(
			&step.JobID, &step.Number, &step.Name, &step.Status, &conclusion,
			&startedAt, &completedAt, &step.DurationMS,
		); err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}
		step.Conclusion = schema.Conclusion(conclusion)
		step.StartedAt = fromEpochMilli(startedAt)
		step.CompletedAt = fromEpochMilli(completedAt)

		if job, ok := jobIndex[step.JobID]; ok {
			job.Steps = append(job.Steps, step)
		}
	}
	if err := stepRows.Err(); err != nil {
		return err
	}

	for _, job := range jobOrder {
		if i, ok := index[job.RunID]; ok {
			snapshot.Runs[i].Jobs = append(snapshot.Runs[i].Jobs, *job)
		}
	}
	return nil
}

// ExistingRunIDs implements the RunStore interface. Only runs with a
// terminal conclusion are listed; stored in-progress runs should be fetched
// again so their final state lands.
func (s *SQLRunStore) ExistingRunIDs(ctx context.Context, workflowID string, start, end time.Time) (map[int64]bool, error) {
	runs := internal.QuoteTableName(runsTable, s.backend)
	query := fmt.Sprintf("SELECT id FROM %s WHERE workflow_id = ? AND created_at >= ? AND created_at <= ? AND conclusion <> ''", runs)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), workflowID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query existing run IDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

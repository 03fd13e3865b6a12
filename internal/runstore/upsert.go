package runstore

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/schema"
)

// UpsertRun implements the RunStore interface. The run and its full job and
// step tree are committed in one transaction keyed on provider IDs: the old
// tree is removed and the new one inserted, so re-ingesting a run yields
// identical stored state and no orphaned children.
func (s *SQLRunStore) UpsertRun(ctx context.Context, run *schema.WorkflowRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runs := internal.QuoteTableName(runsTable, s.backend)
	jobs := internal.QuoteTableName(jobsTable, s.backend)
	steps := internal.QuoteTableName(stepsTable, s.backend)

	deletes := []string{
		fmt.Sprintf("DELETE FROM %s WHERE job_id IN (SELECT id FROM %s WHERE run_id = ?)", steps, jobs),
		fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", jobs),
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", runs),
	}
	for _, q := range deletes {
		if _, err := tx.ExecContext(ctx, s.rebind(q), run.ID); err != nil {
			return fmt.Errorf("failed to clear previous run %d: %w", run.ID, err)
		}
	}

	insertRun := fmt.Sprintf(`INSERT INTO %s
		(id, workflow_id, name, owner, repo, head_branch, head_sha, run_number, event, status, conclusion, created_at, updated_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, runs)
	if _, err := tx.ExecContext(ctx, s.rebind(insertRun),
		run.ID, run.WorkflowID, run.Name, run.Owner, run.Repo,
		run.HeadBranch, run.HeadSHA, run.RunNumber, run.Event,
		run.Status, string(run.Conclusion),
		run.CreatedAt.UnixMilli(), run.UpdatedAt.UnixMilli(), run.DurationMS,
	); err != nil {
		return fmt.Errorf("failed to insert run %d: %w", run.ID, err)
	}

	insertJob := fmt.Sprintf(`INSERT INTO %s
		(id, run_id, name, status, conclusion, started_at, completed_at, duration_ms, matrix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, jobs)
	insertStep := fmt.Sprintf(`INSERT INTO %s
		(job_id, number, name, status, conclusion, started_at, completed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, steps)

	for _, job := range run.Jobs {
		var matrix *string
		if job.Matrix != nil {
			c := job.Matrix.Canonical()
			matrix = &c
		}
		if _, err := tx.ExecContext(ctx, s.rebind(insertJob),
			job.ID, run.ID, job.Name, job.Status, string(job.Conclusion),
			epochMilli(job.StartedAt), epochMilli(job.CompletedAt), job.DurationMS, matrix,
		); err != nil {
			return fmt.Errorf("failed to insert job %d: %w", job.ID, err)
		}
		for _, step := range job.Steps {
			if _, err := tx.ExecContext(ctx, s.rebind(insertStep),
				job.ID, step.Number, step.Name, step.Status, string(step.Conclusion),
				epochMilli(step.StartedAt), epochMilli(step.CompletedAt), step.DurationMS,
			); err != nil {
				return fmt.Errorf("failed to insert step %d/%d: %w", job.ID, step.Number, err)
			}
		}
	}

	return tx.Commit()
}

// ClearWorkflow implements the RunStore interface.
func (s *SQLRunStore) ClearWorkflow(ctx context.Context, workflowID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runs := internal.QuoteTableName(runsTable, s.backend)
	jobs := internal.QuoteTableName(jobsTable, s.backend)
	steps := internal.QuoteTableName(stepsTable, s.backend)

	deletes := []string{
		fmt.Sprintf(`DELETE FROM %s WHERE job_id IN (
			SELECT j.id FROM %s j JOIN %s r ON j.run_id = r.id WHERE r.workflow_id = ?)`, steps, jobs, runs),
		fmt.Sprintf("DELETE FROM %s WHERE run_id IN (SELECT id FROM %s WHERE workflow_id = ?)", jobs, runs),
		fmt.Sprintf("DELETE FROM %s WHERE workflow_id = ?", runs),
	}
	for _, q := range deletes {
		if _, err := tx.ExecContext(ctx, s.rebind(q), workflowID); err != nil {
			return fmt.Errorf("failed to clear workflow %s: %w", workflowID, err)
		}
	}

	return tx.Commit()
}

// epochMilli converts an optional timestamp to epoch milliseconds for storage.
func epochMilli(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// fromEpochMilli converts stored epoch milliseconds back to a UTC timestamp.
func fromEpochMilli(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

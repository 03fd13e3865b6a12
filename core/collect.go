package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
)

// CollectResult summarizes one ingestion session.
type CollectResult struct {
	Fetched int `json:"fetched"` // runs fetched and stored this session
	Skipped int `json:"skipped"` // runs already stored with a terminal conclusion
}

// collectRuns walks the paginated run listing and stores each new run with
// its full job tree. Runs already stored with a terminal conclusion are
// skipped so interrupted backfills resume where they left off.
func collectRuns(ctx context.Context, cfg *contract.Config, client contract.APIClient, store contract.RunStore) (*CollectResult, error) {
	existing, err := store.ExistingRunIDs(ctx, cfg.WorkflowID, cfg.StartTime, cfg.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored runs: %w", err)
	}

	iter := client.FetchRuns(ctx, contract.RunQuery{
		Owner:      cfg.Owner,
		Repo:       cfg.Repo,
		WorkflowID: cfg.WorkflowID,
		Branch:     cfg.Branch,
		Start:      cfg.StartTime,
		End:        cfg.EndTime,
	})

	result := &CollectResult{}
	runCh := make(chan schema.WorkflowRun, cfg.Workers)
	errCh := make(chan error, cfg.Workers)
	var stored, failed int
	var mu sync.Mutex

	// Worker pool: each worker fetches the job tree for a run and stores it.
	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Go(func() {
			for run := range runCh {
				if err := ingestRun(ctx, cfg, client, store, run); err != nil {
					select {
					case errCh <- err:
					default:
					}
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				mu.Lock()
				stored++
				mu.Unlock()
			}
		})
	}

	// Feed the pool from the paginated listing on this goroutine.
	for iter.Next() {
		run := iter.Run()
		if existing[run.ID] {
			result.Skipped++
			continue
		}
		runCh <- run
	}
	close(runCh)
	wg.Wait()
	close(errCh)

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workflow runs: %w", err)
	}
	if err := <-errCh; err != nil {
		if failed > 0 {
			internal.LogWarning(fmt.Sprintf("%d runs failed to ingest", failed))
		}
		return nil, err
	}

	result.Fetched = stored
	return result, nil
}

// ingestRun fetches the job tree for one run and commits it in a single
// transaction. A run duration missing from the listing is derived from the
// job timestamps before storing.
func ingestRun(ctx context.Context, cfg *contract.Config, client contract.APIClient, store contract.RunStore, run schema.WorkflowRun) error {
	jobs, err := client.FetchJobs(ctx, cfg.Owner, cfg.Repo, run.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch jobs for run %d: %w", run.ID, err)
	}
	run.Jobs = jobs

	if run.DurationMS == nil {
		if ms, ok := run.ComputeDuration(); ok {
			run.DurationMS = &ms
		}
	}

	if err := store.UpsertRun(ctx, &run); err != nil {
		return fmt.Errorf("failed to store run %d: %w", run.ID, err)
	}
	return nil
}

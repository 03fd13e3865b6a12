// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/actionstat/schema"
)

// RunQuery bounds one ingestion request for workflow runs.
type RunQuery struct {
	Owner      string
	Repo       string
	WorkflowID string
	Branch     string // optional filter
	Start      time.Time
	End        time.Time
}

// RunIterator is a lazy, single-pass sequence of workflow runs. Consumers
// must drain it or abandon it; it cannot be restarted.
type RunIterator interface {
	// Next advances to the next run. It returns false when the sequence is
	// exhausted or an error occurred; check Err afterwards.
	Next() bool

	// Run returns the current run summary. Only valid after Next returns true.
	Run() schema.WorkflowRun

	// Err returns the first error encountered while iterating.
	Err() error
}

// APIClient defines the operations needed against the CI provider's API.
// This allows the ingestion logic to be tested without a real network.
type APIClient interface {
	// ValidateToken checks the configured credential with a lightweight call.
	ValidateToken(ctx context.Context) error

	// FetchRuns returns a lazy sequence of run summaries for the query,
	// following pagination cursors and stopping once results fall outside
	// the requested window.
	FetchRuns(ctx context.Context, q RunQuery) RunIterator

	// FetchJobs returns all jobs for a run, steps embedded.
	FetchJobs(ctx context.Context, owner, repo string, runID int64) ([]schema.Job, error)
}

// ResponseCache is the read-through cache consulted before every API request.
// Implementations guarantee single-flight semantics: concurrent calls for the
// same key issue one underlying fetch and share its result.
type ResponseCache interface {
	// GetOrFetch returns the cached payload for key, or runs fetch once,
	// stores its result and returns it. The bool reports a cache hit.
	GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, bool, error)

	// InvalidateAll evicts every entry. Backs force-refresh.
	InvalidateAll() error

	// Status returns status information about the cache.
	Status() (schema.CacheStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// CacheStore defines the durable key/value storage under the response cache.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int64, error)
	Set(key string, value []byte, fetchedAt int64) error
	DeleteAll() error
	Status() (schema.CacheStatus, error)
	Close() error
}

// RunStore is the normalized storage adapter for runs, jobs and steps.
type RunStore interface {
	// VerifySchema checks required tables and reinitializes the schema when
	// any are missing. Missing tables are recoverable, not fatal.
	VerifySchema(ctx context.Context) error

	// UpsertRun commits a run with its full job/step tree in one
	// transaction, keyed on provider IDs. Ingesting the same run twice
	// yields identical stored state.
	UpsertRun(ctx context.Context, run *schema.WorkflowRun) error

	// QueryRuns returns an immutable, time-bounded snapshot for aggregation.
	QueryRuns(ctx context.Context, workflowID string, start, end time.Time) (*schema.Snapshot, error)

	// ExistingRunIDs lists IDs already stored for the workflow within the
	// window, so interrupted backfills resume without re-fetching.
	ExistingRunIDs(ctx context.Context, workflowID string, start, end time.Time) (map[int64]bool, error)

	// ClearWorkflow atomically deletes all runs, jobs and steps for a
	// workflow. Backs force-refresh.
	ClearWorkflow(ctx context.Context, workflowID string) error

	// Status returns status information about the store.
	Status(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Limiter is the shared rate-limit budget for one ingestion session. All
// client calls in a session hold a reference to the same limiter; there is
// no ambient global state.
type Limiter interface {
	// Acquire blocks until a request may be issued under the remaining
	// budget. It returns a RateLimitError when the required wait exceeds
	// the configured ceiling, or ctx.Err on cancellation.
	Acquire(ctx context.Context) error

	// Observe records the remaining-quota and reset-time signals from a
	// response's rate-limit headers.
	Observe(remaining int, reset time.Time)
}

// Clock abstracts time for retry and rate-limit logic so state transitions
// are testable without real sleeps.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

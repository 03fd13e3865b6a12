package ghclient

import (
	"context"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

var _ contract.APIClient = &MockAPIClient{} // Compile-time check

// ValidateToken implements the APIClient interface.
func (m *MockAPIClient) ValidateToken(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// FetchRuns implements the APIClient interface.
func (m *MockAPIClient) FetchRuns(ctx context.Context, q contract.RunQuery) contract.RunIterator {
	args := m.Called(ctx, q)
	it, _ := args.Get(0).(contract.RunIterator)
	return it
}

// FetchJobs implements the APIClient interface.
func (m *MockAPIClient) FetchJobs(ctx context.Context, owner, repo string, runID int64) ([]schema.Job, error) {
	args := m.Called(ctx, owner, repo, runID)
	jobs, _ := args.Get(0).([]schema.Job)
	return jobs, args.Error(1)
}

// SliceIterator is a RunIterator backed by an in-memory slice, for tests.
type SliceIterator struct {
	runs []schema.WorkflowRun
	idx  int
	err  error
}

var _ contract.RunIterator = &SliceIterator{} // Compile-time check

// NewSliceIterator creates an iterator over the given runs, returning err
// after the last one.
func NewSliceIterator(runs []schema.WorkflowRun, err error) *SliceIterator {
	return &SliceIterator{runs: runs, err: err}
}

// Next implements the RunIterator interface.
func (it *SliceIterator) Next() bool {
	if it.idx >= len(it.runs) {
		return false
	}
	it.idx++
	return true
}

// Run implements the RunIterator interface.
func (it *SliceIterator) Run() schema.WorkflowRun { return it.runs[it.idx-1] }

// Err implements the RunIterator interface.
func (it *SliceIterator) Err() error {
	if it.idx >= len(it.runs) {
		return it.err
	}
	return nil
}

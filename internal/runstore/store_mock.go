package runstore

import (
	"context"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/mock"
)

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// VerifySchema implements the RunStore interface.
func (m *MockRunStore) VerifySchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// UpsertRun implements the RunStore interface.
func (m *MockRunStore) UpsertRun(ctx context.Context, run *schema.WorkflowRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// QueryRuns implements the RunStore interface.
func (m *MockRunStore) QueryRuns(ctx context.Context, workflowID string, start, end time.Time) (*schema.Snapshot, error) {
	args := m.Called(ctx, workflowID, start, end)
	snapshot, _ := args.Get(0).(*schema.Snapshot)
	return snapshot, args.Error(1)
}

// ExistingRunIDs implements the RunStore interface.
func (m *MockRunStore) ExistingRunIDs(ctx context.Context, workflowID string, start, end time.Time) (map[int64]bool, error) {
	args := m.Called(ctx, workflowID, start, end)
	ids, _ := args.Get(0).(map[int64]bool)
	return ids, args.Error(1)
}

// ClearWorkflow implements the RunStore interface.
func (m *MockRunStore) ClearWorkflow(ctx context.Context, workflowID string) error {
	args := m.Called(ctx, workflowID)
	return args.Error(0)
}

// Status implements the RunStore interface.
func (m *MockRunStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

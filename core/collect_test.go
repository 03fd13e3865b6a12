package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/internal/ghclient"
	"github.com/huangsam/actionstat/internal/runstore"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func collectConfig() *contract.Config {
	return &contract.Config{
		Owner:      "octocat",
		Repo:       "hello-world",
		WorkflowID: "ci.yml",
		StartTime:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Workers:    2,
	}
}

func listedRun(id int64, created time.Time) schema.WorkflowRun {
	return schema.WorkflowRun{
		ID:         id,
		WorkflowID: "ci.yml",
		Name:       "CI",
		Owner:      "octocat",
		Repo:       "hello-world",
		HeadBranch: "main",
		HeadSHA:    "abc123",
		Status:     "completed",
		Conclusion: schema.ConclusionSuccess,
		CreatedAt:  created,
		UpdatedAt:  created.Add(5 * time.Minute),
	}
}

func TestCollectRunsStoresNewRuns(t *testing.T) {
	cfg := collectConfig()
	created := cfg.StartTime.Add(24 * time.Hour)

	client := &ghclient.MockAPIClient{}
	store := &runstore.MockRunStore{}

	runs := []schema.WorkflowRun{listedRun(1, created), listedRun(2, created.Add(time.Hour))}
	store.On("ExistingRunIDs", mock.Anything, "ci.yml", cfg.StartTime, cfg.EndTime).
		Return(map[int64]bool{}, nil)
	client.On("FetchRuns", mock.Anything, mock.Anything).
		Return(ghclient.NewSliceIterator(runs, nil))
	client.On("FetchJobs", mock.Anything, "octocat", "hello-world", mock.Anything).
		Return([]schema.Job{{ID: 10, Name: "test"}}, nil)
	store.On("UpsertRun", mock.Anything, mock.Anything).Return(nil)

	result, err := collectRuns(context.Background(), cfg, client, store)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 0, result.Skipped)
	store.AssertNumberOfCalls(t, "UpsertRun", 2)
}

func TestCollectRunsSkipsStoredRuns(t *testing.T) {
	cfg := collectConfig()
	created := cfg.StartTime.Add(24 * time.Hour)

	client := &ghclient.MockAPIClient{}
	store := &runstore.MockRunStore{}

	runs := []schema.WorkflowRun{listedRun(1, created), listedRun(2, created.Add(time.Hour))}
	store.On("ExistingRunIDs", mock.Anything, "ci.yml", cfg.StartTime, cfg.EndTime).
		Return(map[int64]bool{1: true}, nil)
	client.On("FetchRuns", mock.Anything, mock.Anything).
		Return(ghclient.NewSliceIterator(runs, nil))
	client.On("FetchJobs", mock.Anything, "octocat", "hello-world", int64(2)).
		Return([]schema.Job{}, nil)
	store.On("UpsertRun", mock.Anything, mock.Anything).Return(nil)

	result, err := collectRuns(context.Background(), cfg, client, store)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Skipped)
	client.AssertNotCalled(t, "FetchJobs", mock.Anything, "octocat", "hello-world", int64(1))
}

func TestCollectRunsDerivesRunDuration(t *testing.T) {
	cfg := collectConfig()
	created := cfg.StartTime.Add(24 * time.Hour)

	started := created.Add(time.Minute)
	completed := started.Add(150 * time.Second)
	jobs := []schema.Job{{
		ID: 10, RunID: 1, Name: "test",
		StartedAt: &started, CompletedAt: &completed,
	}}

	client := &ghclient.MockAPIClient{}
	store := &runstore.MockRunStore{}
	store.On("ExistingRunIDs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[int64]bool{}, nil)
	client.On("FetchRuns", mock.Anything, mock.Anything).
		Return(ghclient.NewSliceIterator([]schema.WorkflowRun{listedRun(1, created)}, nil))
	client.On("FetchJobs", mock.Anything, "octocat", "hello-world", int64(1)).
		Return(jobs, nil)

	var upserted *schema.WorkflowRun
	store.On("UpsertRun", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			upserted = args.Get(1).(*schema.WorkflowRun)
		}).
		Return(nil)

	_, err := collectRuns(context.Background(), cfg, client, store)
	require.NoError(t, err)
	require.NotNil(t, upserted)
	require.NotNil(t, upserted.DurationMS)
	assert.Equal(t, int64(150000), *upserted.DurationMS)
}

func TestCollectRunsPropagatesJobFetchError(t *testing.T) {
	cfg := collectConfig()
	created := cfg.StartTime.Add(24 * time.Hour)

	client := &ghclient.MockAPIClient{}
	store := &runstore.MockRunStore{}
	store.On("ExistingRunIDs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[int64]bool{}, nil)
	client.On("FetchRuns", mock.Anything, mock.Anything).
		Return(ghclient.NewSliceIterator([]schema.WorkflowRun{listedRun(1, created)}, nil))
	client.On("FetchJobs", mock.Anything, "octocat", "hello-world", int64(1)).
		Return(nil, errors.New("boom"))

	_, err := collectRuns(context.Background(), cfg, client, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 1")
	store.AssertNotCalled(t, "UpsertRun", mock.Anything, mock.Anything)
}

func TestCollectRunsPropagatesIteratorError(t *testing.T) {
	cfg := collectConfig()

	client := &ghclient.MockAPIClient{}
	store := &runstore.MockRunStore{}
	store.On("ExistingRunIDs", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(map[int64]bool{}, nil)
	client.On("FetchRuns", mock.Anything, mock.Anything).
		Return(ghclient.NewSliceIterator(nil, errors.New("listing failed")))

	_, err := collectRuns(context.Background(), cfg, client, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing failed")
}

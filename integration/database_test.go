//go:build database

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/actionstat/internal/respcache"
	"github.com/huangsam/actionstat/internal/runstore"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a disposable PostgreSQL container and returns its
// connection string.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	pgC, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("actionstat"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("secret123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	connStr, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// TestRunStoreWithPostgres exercises schema setup, upserts and queries
// against a real PostgreSQL backend.
func TestRunStoreWithPostgres(t *testing.T) {
	ctx := context.Background()
	connStr := startPostgres(ctx, t)

	store, err := runstore.NewRunStore(schema.PostgreSQLBackend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.VerifySchema(ctx))

	created := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	started := created.Add(time.Minute)
	completed := started.Add(2 * time.Minute)
	durationMS := int64(120000)
	run := &schema.WorkflowRun{
		ID:         100,
		WorkflowID: "ci.yml",
		Name:       "CI",
		Owner:      "octocat",
		Repo:       "hello-world",
		HeadBranch: "main",
		HeadSHA:    "abc123",
		RunNumber:  1,
		Event:      "push",
		Status:     "completed",
		Conclusion: schema.ConclusionSuccess,
		CreatedAt:  created,
		UpdatedAt:  completed,
		DurationMS: &durationMS,
		Jobs: []schema.Job{
			{
				ID: 1000, RunID: 100, Name: "test",
				Status: "completed", Conclusion: schema.ConclusionSuccess,
				StartedAt: &started, CompletedAt: &completed, DurationMS: &durationMS,
				Steps: []schema.Step{
					{JobID: 1000, Number: 1, Name: "Checkout", Status: "completed", Conclusion: schema.ConclusionSuccess},
				},
			},
		},
	}
	require.NoError(t, store.UpsertRun(ctx, run))
	// Upserting again must not duplicate anything
	require.NoError(t, store.UpsertRun(ctx, run))

	snapshot, err := store.QueryRuns(ctx, "ci.yml", created.Add(-time.Hour), created.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, snapshot.Runs, 1)
	require.Len(t, snapshot.Runs[0].Jobs, 1)
	assert.Len(t, snapshot.Runs[0].Jobs[0].Steps, 1)

	ids, err := store.ExistingRunIDs(ctx, "ci.yml", created.Add(-time.Hour), created.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ids[100])

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.RunCount)
	assert.Contains(t, status.Workflows, "ci.yml")

	require.NoError(t, store.ClearWorkflow(ctx, "ci.yml"))
	snapshot, err = store.QueryRuns(ctx, "ci.yml", created.Add(-time.Hour), created.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, snapshot.Runs)
}

// TestCacheStoreWithPostgres exercises the response cache against a real
// PostgreSQL backend.
func TestCacheStoreWithPostgres(t *testing.T) {
	ctx := context.Background()
	connStr := startPostgres(ctx, t)

	store, err := respcache.NewCacheStore(schema.PostgreSQLBackend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	key := respcache.Key("/repos/octocat/hello-world/actions/runs", nil)
	require.NoError(t, store.Set(key, []byte(`{"total_count":0}`), time.Now().Unix()))

	value, _, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"total_count":0}`), value)

	// Overwriting the same key must replace, not duplicate
	require.NoError(t, store.Set(key, []byte(`{"total_count":1}`), time.Now().Unix()))
	status, err := store.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalEntries)

	require.NoError(t, store.DeleteAll())
	status, err = store.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalEntries)
}

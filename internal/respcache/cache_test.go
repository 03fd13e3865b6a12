package respcache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *ReadThrough {
	t.Helper()
	store, err := NewCacheStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, contract.NewFakeClock(time.Unix(1700000000, 0)))
}

func TestGetOrFetchMissThenHit(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(`{"ok":true}`), nil
	}

	body, hit, err := cache.GetOrFetch(ctx, "k1", fetch)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte(`{"ok":true}`), body)

	body, hit, err = cache.GetOrFetch(ctx, "k1", fetch)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte(`{"ok":true}`), body)

	assert.Equal(t, int32(1), calls.Load(), "second call must be served from the cache")
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	const workers = 8
	results := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _, err := cache.GetOrFetch(ctx, "same-key", fetch)
			assert.NoError(t, err)
			results[i] = body
		}()
	}

	// Give all workers time to pile onto the same key before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses must share one fetch")
	for _, body := range results {
		assert.Equal(t, []byte("shared"), body)
	}
}

func TestGetOrFetchError(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	fetchErr := errors.New("boom")
	_, _, err := cache.GetOrFetch(ctx, "bad", func(ctx context.Context) ([]byte, error) {
		return nil, fetchErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)

	// Errors must not be cached.
	body, hit, err := cache.GetOrFetch(ctx, "bad", func(ctx context.Context) ([]byte, error) {
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("recovered"), body)
}

func TestInvalidateAll(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}

	for i := range 3 {
		_, _, err := cache.GetOrFetch(ctx, fmt.Sprintf("k%d", i), fetch)
		require.NoError(t, err)
	}

	status, err := cache.Status()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalEntries)

	require.NoError(t, cache.InvalidateAll())

	status, err = cache.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalEntries)

	_, hit, err := cache.GetOrFetch(ctx, "k0", fetch)
	require.NoError(t, err)
	assert.False(t, hit, "invalidated entries must be fetched again")
	assert.Equal(t, int32(4), calls.Load())
}

func TestNoneBackendAlwaysFetches(t *testing.T) {
	store, err := NewCacheStore(schema.NoneBackend, "")
	require.NoError(t, err)
	cache := New(store, contract.SystemClock{})
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("fresh"), nil
	}

	for range 2 {
		body, hit, err := cache.GetOrFetch(ctx, "k", fetch)
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, []byte("fresh"), body)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheStoreStatus(t *testing.T) {
	store, err := NewCacheStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Set("a", []byte("1"), 100))
	require.NoError(t, store.Set("b", []byte("2"), 200))

	status, err := store.Status()
	require.NoError(t, err)
	assert.Equal(t, schema.SQLiteBackend, status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(200, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(100, 0), status.OldestEntryTime)
}

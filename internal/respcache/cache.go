// Package respcache is a read-through cache for API responses.
package respcache

import (
	"context"
	"fmt"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"golang.org/x/sync/singleflight"
)

// ReadThrough consults the durable store before every fetch. Concurrent
// misses for the same key are collapsed into one underlying fetch whose
// result is shared by all callers.
type ReadThrough struct {
	store contract.CacheStore
	clock contract.Clock
	group singleflight.Group
}

var _ contract.ResponseCache = &ReadThrough{} // Compile-time check

// New creates a read-through cache over the given store.
func New(store contract.CacheStore, clock contract.Clock) *ReadThrough {
	return &ReadThrough{store: store, clock: clock}
}

// GetOrFetch implements the ResponseCache interface.
func (c *ReadThrough) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if value, _, err := c.store.Get(key); err == nil {
		return value, true, nil
	}

	var hit bool
	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have filled the entry while this call
		// waited its turn.
		if value, _, err := c.store.Get(key); err == nil {
			hit = true
			return value, nil
		}
		body, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(key, body, c.clock.Now().Unix()); err != nil {
			// A failed write degrades to fetch-every-time, which is safe.
			internal.LogWarning(fmt.Sprintf("cache write failed: %v", err))
		}
		return body, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), hit, nil
}

// InvalidateAll implements the ResponseCache interface.
func (c *ReadThrough) InvalidateAll() error {
	return c.store.DeleteAll()
}

// Status implements the ResponseCache interface.
func (c *ReadThrough) Status() (schema.CacheStatus, error) {
	return c.store.Status()
}

// Close implements the ResponseCache interface.
func (c *ReadThrough) Close() error {
	return c.store.Close()
}

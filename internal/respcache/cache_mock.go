package respcache

import (
	"context"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int64, error) {
	args := m.Called(key)
	value, _ := args.Get(0).([]byte)
	return value, args.Get(1).(int64), args.Error(2)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, value []byte, fetchedAt int64) error {
	args := m.Called(key, value, fetchedAt)
	return args.Error(0)
}

// DeleteAll implements the CacheStore interface.
func (m *MockCacheStore) DeleteAll() error {
	args := m.Called()
	return args.Error(0)
}

// Status implements the CacheStore interface.
func (m *MockCacheStore) Status() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockResponseCache is a mock implementation of ResponseCache for testing.
type MockResponseCache struct {
	mock.Mock
}

var _ contract.ResponseCache = &MockResponseCache{} // Compile-time check

// GetOrFetch implements the ResponseCache interface.
func (m *MockResponseCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	args := m.Called(ctx, key, fetch)
	value, _ := args.Get(0).([]byte)
	return value, args.Bool(1), args.Error(2)
}

// InvalidateAll implements the ResponseCache interface.
func (m *MockResponseCache) InvalidateAll() error {
	args := m.Called()
	return args.Error(0)
}

// Status implements the ResponseCache interface.
func (m *MockResponseCache) Status() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the ResponseCache interface.
func (m *MockResponseCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// PassthroughCache is a ResponseCache that never stores anything, for tests
// that exercise fetch behavior directly.
type PassthroughCache struct{}

var _ contract.ResponseCache = PassthroughCache{} // Compile-time check

// GetOrFetch implements the ResponseCache interface.
func (PassthroughCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	body, err := fetch(ctx)
	return body, false, err
}

// InvalidateAll implements the ResponseCache interface.
func (PassthroughCache) InvalidateAll() error { return nil }

// Status implements the ResponseCache interface.
func (PassthroughCache) Status() (schema.CacheStatus, error) {
	return schema.CacheStatus{Backend: schema.NoneBackend}, nil
}

// Close implements the ResponseCache interface.
func (PassthroughCache) Close() error { return nil }

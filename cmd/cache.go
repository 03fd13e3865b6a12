package cmd

import (
	"fmt"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/internal/respcache"
	"github.com/huangsam/actionstat/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on response cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by fetch and report. This avoids token and target
// validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the API response cache (reduces API calls)",
	Long: `Manage the response cache that backs every API request.

Actionstat caches raw API payloads so repeated fetches of the same run
history cost no rate-limit budget. Cache keys are derived from request
content, so entries never go stale for completed runs.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached responses

Examples:
  # Check cache status
  actionstat cache status

  # Clear cache to force full re-fetching
  actionstat cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached API responses",
	Long: `Delete all cached API responses from the configured backend.

Use this when:
- Cached payloads may be corrupted
- You want every request to hit the API again
- Reclaiming disk space after a large backfill

Examples:
  # Clear SQLite cache (default)
  actionstat cache clear

  # Clear MySQL cache (set connection string via env variable)
  ACTIONSTAT_CACHE_BACKEND=mysql ACTIONSTAT_CACHE_DB_CONNECT="..." actionstat cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := respcache.NewCacheStore(cfg.CacheBackend, cfg.CacheDBConnect)
		if err != nil {
			internal.FatalError("Failed to open cache", err)
		}
		defer func() { _ = store.Close() }()
		if err := store.DeleteAll(); err != nil {
			internal.FatalError("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the API response cache.

Displays:
- Backend type and connection status
- Total number of cached responses
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  actionstat cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := respcache.NewCacheStore(cfg.CacheBackend, cfg.CacheDBConnect)
		if err != nil {
			internal.FatalError("Failed to open cache", err)
		}
		defer func() { _ = store.Close() }()
		status, err := store.Status()
		if err != nil {
			internal.FatalError("Failed to get cache status", err)
		}
		respcache.PrintCacheStatus(status)
	},
}

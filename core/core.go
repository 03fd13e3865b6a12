// Package core has core logic for ingestion and report generation.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/actionstat/core/stats"
	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/internal/ghclient"
	"github.com/huangsam/actionstat/internal/outwriter"
	"github.com/huangsam/actionstat/internal/ratelimit"
	"github.com/huangsam/actionstat/internal/respcache"
	"github.com/huangsam/actionstat/internal/runstore"
	"github.com/huangsam/actionstat/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// GetFetchResult ingests workflow runs from the provider into the run store
// and returns the session summary without printing anything.
func GetFetchResult(ctx context.Context, cfg *contract.Config) (*CollectResult, error) {
	if err := cfg.RequireTarget(); err != nil {
		return nil, err
	}
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	cache, err := openResponseCache(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cache.Close() }()

	store, err := runstore.NewRunStore(cfg.StoreBackend, cfg.StoreDBConnect)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if err := store.VerifySchema(ctx); err != nil {
		return nil, err
	}

	clock := contract.SystemClock{}
	limiter := ratelimit.New(contract.RateLimitSafetyBuffer, cfg.MaxRateLimitWait, clock)
	client := ghclient.New(cfg, cache, limiter, clock)

	if err := client.ValidateToken(ctx); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if cfg.ForceRefresh {
		if err := cache.InvalidateAll(); err != nil {
			return nil, fmt.Errorf("failed to invalidate cache: %w", err)
		}
		if err := store.ClearWorkflow(ctx, cfg.WorkflowID); err != nil {
			return nil, fmt.Errorf("failed to clear stored runs: %w", err)
		}
	}

	return collectRuns(ctx, cfg, client, store)
}

// ExecuteFetch ingests workflow runs from the provider into the run store.
// It serves as the main entry point for the 'fetch' command.
func ExecuteFetch(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	result, err := GetFetchResult(ctx, cfg)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	fmt.Printf("Fetched %d runs (%d already stored) for %s/%s %s in %v with %d workers. Cache backend: %s\n",
		result.Fetched, result.Skipped, cfg.Owner, cfg.Repo, cfg.WorkflowID,
		duration, cfg.Workers, cfg.CacheBackend)
	return nil
}

// GetReportResult aggregates stored runs into weekly metrics and returns the
// result without rendering it.
func GetReportResult(ctx context.Context, cfg *contract.Config) (*schema.AggregationResult, error) {
	if err := cfg.RequireTarget(); err != nil {
		return nil, err
	}

	store, err := runstore.NewRunStore(cfg.StoreBackend, cfg.StoreDBConnect)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if err := store.VerifySchema(ctx); err != nil {
		return nil, err
	}

	snapshot, err := store.QueryRuns(ctx, cfg.WorkflowID, cfg.StartTime, cfg.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored runs: %w", err)
	}

	return stats.Aggregate(snapshot), nil
}

// ExecuteReport aggregates stored runs into weekly metrics and writes the
// report. It serves as the main entry point for the 'report' command.
func ExecuteReport(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	result, err := GetReportResult(ctx, cfg)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.WriteReport(result, cfg, duration)
}

// ExecuteAnalyze runs fetch followed by report in one invocation.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config) error {
	if err := ExecuteFetch(ctx, cfg); err != nil {
		return err
	}
	return ExecuteReport(ctx, cfg)
}

// openResponseCache builds the read-through response cache from config.
func openResponseCache(cfg *contract.Config) (contract.ResponseCache, error) {
	store, err := respcache.NewCacheStore(cfg.CacheBackend, cfg.CacheDBConnect)
	if err != nil {
		internal.LogWarning(fmt.Sprintf("Cache unavailable, continuing without it: %v", err))
		store, err = respcache.NewCacheStore(schema.NoneBackend, "")
		if err != nil {
			return nil, err
		}
	}
	return respcache.New(store, contract.SystemClock{}), nil
}

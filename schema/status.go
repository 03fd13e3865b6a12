package schema

import "time"

// CacheStatus has status information about the response cache.
type CacheStatus struct {
	Backend         DatabaseBackend `json:"backend"`
	Connected       bool            `json:"connected"`
	TotalEntries    int             `json:"total_entries"`
	LastEntryTime   time.Time       `json:"last_entry_time"`
	OldestEntryTime time.Time       `json:"oldest_entry_time"`
	TableSizeBytes  int64           `json:"table_size_bytes"`
}

// StoreStatus has status information about the normalized run store.
type StoreStatus struct {
	Backend   DatabaseBackend `json:"backend"`
	Connected bool            `json:"connected"`
	RunCount  int             `json:"run_count"`
	JobCount  int             `json:"job_count"`
	StepCount int             `json:"step_count"`
	Workflows []string        `json:"workflows"`
}

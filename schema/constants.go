package schema

// Custom string types for type safety.
type (
	// Conclusion represents the terminal outcome reported for a run, job or step.
	Conclusion string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the cache and run store.
	DatabaseBackend string
)

// All conclusions reported by the provider.
const (
	ConclusionSuccess        Conclusion = "success"
	ConclusionFailure        Conclusion = "failure"
	ConclusionCancelled      Conclusion = "cancelled"
	ConclusionSkipped        Conclusion = "skipped"
	ConclusionNeutral        Conclusion = "neutral"
	ConclusionActionRequired Conclusion = "action_required"
	ConclusionStale          Conclusion = "stale"
	ConclusionTimedOut       Conclusion = "timed_out"

	// ConclusionNone marks a run that has not reached a terminal state yet.
	ConclusionNone Conclusion = ""
)

// Terminal returns true when the conclusion marks a finished run.
func (c Conclusion) Terminal() bool {
	return c != ConclusionNone
}

// AllConclusions lists every terminal conclusion in report order.
var AllConclusions = []Conclusion{
	ConclusionSuccess,
	ConclusionFailure,
	ConclusionCancelled,
	ConclusionSkipped,
	ConclusionNeutral,
	ConclusionActionRequired,
	ConclusionStale,
	ConclusionTimedOut,
}

// All output modes supported.
const (
	TableOut   OutputMode = "table" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TableOut:   {},
	JSONOut:    {},
	CSVOut:     {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

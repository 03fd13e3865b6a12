// Package runstore is the normalized storage layer for runs, jobs and steps.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"  // PostgreSQL driver
	_ "modernc.org/sqlite"              // SQLite driver
)

// Tables required by the storage schema.
var requiredTables = []string{runsTable, jobsTable, stepsTable}

const (
	runsTable  = "workflows"
	jobsTable  = "jobs"
	stepsTable = "steps"
)

// GetDBFilePath returns the path to the SQLite DB file for run storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".actionstat_runs.db"
	}
	return filepath.Join(homeDir, ".actionstat_runs.db")
}

// SQLRunStore persists normalized run data in a relational backend.
type SQLRunStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.RunStore = &SQLRunStore{} // Compile-time check

// NewRunStore initializes and returns a new RunStore based on the backend type.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	for _, table := range requiredTables {
		if err := internal.ValidateTableName(table); err != nil {
			return nil, err
		}
	}

	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL store: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL store: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, or postgresql", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	return &SQLRunStore{db: db, backend: backend, connStr: connStr}, nil
}

// VerifySchema implements the RunStore interface. Missing tables are treated
// as recoverable: the store reinitializes them through migrations and only
// fails when that also does not produce a usable schema.
func (s *SQLRunStore) VerifySchema(ctx context.Context) error {
	missing := s.missingTables(ctx)
	if len(missing) == 0 {
		return nil
	}

	internal.LogWarning(fmt.Sprintf("store schema incomplete (missing %v), reinitializing", missing))
	if err := reinitMigrations(s.db, s.backend); err != nil {
		return &contract.SchemaError{Missing: missing, Err: err}
	}

	if missing := s.missingTables(ctx); len(missing) > 0 {
		return &contract.SchemaError{Missing: missing, Err: fmt.Errorf("tables still missing after migration")}
	}
	return nil
}

func (s *SQLRunStore) missingTables(ctx context.Context) []string {
	var missing []string
	for _, table := range requiredTables {
		quoted := internal.QuoteTableName(table, s.backend)
		var n int
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&n); err != nil {
			missing = append(missing, table)
		}
	}
	return missing
}

// rebind rewrites ? placeholders into the backend's positional form.
func (s *SQLRunStore) rebind(query string) string {
	if s.backend != schema.PostgreSQLBackend {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the underlying DB connection.
func (s *SQLRunStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Status implements the RunStore interface.
func (s *SQLRunStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   s.backend,
		Connected: s.db != nil,
	}
	if s.db == nil {
		return status, nil
	}

	counts := map[string]*int{
		runsTable:  &status.RunCount,
		jobsTable:  &status.JobCount,
		stepsTable: &status.StepCount,
	}
	for table, dst := range counts {
		quoted := internal.QuoteTableName(table, s.backend)
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(dst); err != nil {
			return status, fmt.Errorf("failed to count %s: %w", table, err)
		}
	}

	quoted := internal.QuoteTableName(runsTable, s.backend)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT workflow_id FROM %s ORDER BY workflow_id", quoted))
	if err != nil {
		return status, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return status, err
		}
		status.Workflows = append(status.Workflows, id)
	}
	return status, rows.Err()
}

package cmd

import (
	"fmt"

	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/internal/runstore"
	"github.com/huangsam/actionstat/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.WorkflowID = viper.GetString("workflow")

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeCmd focused on run store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by fetch and report. This avoids token and window
// validation for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored workflow run history",
	Long: `Manage the normalized storage of workflow runs, jobs and steps.

Stored runs are the source of truth for every report. Runs are keyed on
their provider IDs, so re-fetching the same window never duplicates data.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and stored workflows
  clear   - Remove stored runs for one workflow
  migrate - Run database schema migrations

Examples:
  # Check store status
  actionstat store status

  # Clear one workflow's history
  actionstat store clear --workflow ci.yml`,
}

// storeClearCmd clears stored runs for a workflow.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored runs, jobs and steps for one workflow",
	Long: `Delete all stored history for a single workflow.

The deletion covers the workflow's runs with their jobs and steps in one
transaction. Other workflows sharing the store are untouched.

WARNING: This action cannot be undone; the next fetch rebuilds from the API.

Examples:
  # Clear one workflow's history
  actionstat store clear --workflow ci.yml`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.WorkflowID == "" {
			internal.FatalError("Cannot clear store", fmt.Errorf("--workflow is required"))
		}
		store, err := runstore.NewRunStore(cfg.StoreBackend, cfg.StoreDBConnect)
		if err != nil {
			internal.FatalError("Failed to open run store", err)
		}
		defer func() { _ = store.Close() }()
		if err := store.ClearWorkflow(rootCtx, cfg.WorkflowID); err != nil {
			internal.FatalError("Failed to clear stored runs", err)
		}
		fmt.Printf("Stored runs for %s cleared successfully.\n", cfg.WorkflowID)
	},
}

// storeStatusCmd shows run store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run store statistics and connection details",
	Long: `Show detailed information about stored workflow run history.

Displays:
- Backend type and connection status
- Row counts for runs, jobs and steps
- Workflows with stored history

Examples:
  # Check store status
  actionstat store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := runstore.NewRunStore(cfg.StoreBackend, cfg.StoreDBConnect)
		if err != nil {
			internal.FatalError("Failed to open run store", err)
		}
		defer func() { _ = store.Close() }()
		status, err := store.Status(rootCtx)
		if err != nil {
			internal.FatalError("Failed to get store status", err)
		}
		runstore.PrintStoreStatus(status)
	},
}

// storeMigrateCmd runs database migrations for the run store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run store.

Migrations allow:
- Upgrading to new schema versions when actionstat is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  actionstat store migrate

  # Migrate to specific version
  actionstat store migrate --target-version 1

  # Rollback to initial state
  actionstat store migrate --target-version 0`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := runstore.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			internal.FatalError("Failed to run migrations", err)
		}
	},
}

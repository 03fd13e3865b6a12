// Package cmd defines the command-line interface for actionstat.
package cmd

import (
	"github.com/huangsam/actionstat/internal"
	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(storeCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("token", "t", "", "GitHub token (or set ACTIONSTAT_TOKEN)")
	rootCmd.PersistentFlags().StringP("owner", "o", "", "Repository owner or organization")
	rootCmd.PersistentFlags().StringP("repo", "r", "", "Repository name")
	rootCmd.PersistentFlags().StringP("workflow", "w", "", "Workflow file name (e.g. ci.yml) or numeric ID")
	rootCmd.PersistentFlags().StringP("branch", "b", "", "Restrict analysis to a single branch")
	rootCmd.PersistentFlags().Int("weeks", contract.DefaultWeeks, "Number of weeks to look back from now")
	rootCmd.PersistentFlags().String("start", "", "Window start in ISO8601 or YYYY-MM-DD (overrides --weeks)")
	rootCmd.PersistentFlags().String("end", "", "Window end in ISO8601 or YYYY-MM-DD (defaults to now)")
	rootCmd.PersistentFlags().Bool("force-refresh", false, "Invalidate cached responses and stored runs before fetching")
	rootCmd.PersistentFlags().String("output", string(schema.TableOut), "Output format: table or json or csv or parquet")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Directory for report files")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("api-url", contract.DefaultAPIBaseURL, "API base URL (for GitHub Enterprise)")
	rootCmd.PersistentFlags().String("timeout", "", "Per-request timeout (e.g. 30s)")
	rootCmd.PersistentFlags().Int("max-retries", contract.DefaultMaxRetries, "Maximum attempts per request")
	rootCmd.PersistentFlags().String("backoff-base", "", "Base delay for retry backoff (e.g. 1s)")
	rootCmd.PersistentFlags().String("backoff-cap", "", "Maximum delay for retry backoff (e.g. 60s)")
	rootCmd.PersistentFlags().String("max-rate-limit-wait", "", "Ceiling for rate-limit waits before failing fast (e.g. 30m)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Run store backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the run store (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		internal.FatalError("Error binding root flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		internal.FatalError("Error binding store migrate flags", err)
	}
}

package contract

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/huangsam/actionstat/schema"
)

// Default values for configuration.
const (
	DefaultWeeks            = 4
	DefaultRequestTimeout   = 30 * time.Second
	DefaultMaxRetries       = 5
	DefaultBackoffBase      = time.Second
	DefaultBackoffCap       = 60 * time.Second
	DefaultMaxRateLimitWait = 30 * time.Minute
	DefaultAPIBaseURL       = "https://api.github.com"
	DefaultOutputDir        = "./reports"
)

// RateLimitSafetyBuffer stops requests before the hard quota: no request is
// issued once the provider reports fewer than this many remaining.
const RateLimitSafetyBuffer = 100

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for ingestion and reporting.
// This struct remains the "final, validated" config.
type Config struct {
	Token      string
	Owner      string
	Repo       string
	WorkflowID string
	Branch     string

	StartTime time.Time
	EndTime   time.Time

	ForceRefresh bool
	OutputDir    string
	Output       schema.OutputMode
	Workers      int

	APIBaseURL       string
	RequestTimeout   time.Duration
	MaxRetries       int
	BackoffBase      time.Duration
	BackoffCap       time.Duration
	MaxRateLimitWait time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	Workflow   string `mapstructure:"workflow"`
	Branch     string `mapstructure:"branch"`
	Weeks      int    `mapstructure:"weeks"`
	Start      string `mapstructure:"start"`
	End        string `mapstructure:"end"`
	Force      bool   `mapstructure:"force-refresh"`
	OutputDir  string `mapstructure:"output-dir"`
	Output     string `mapstructure:"output"`
	Workers    int    `mapstructure:"workers"`
	APIBaseURL string `mapstructure:"api-url"`

	Timeout          string `mapstructure:"timeout"`
	MaxRetries       int    `mapstructure:"max-retries"`
	BackoffBase      string `mapstructure:"backoff-base"`
	BackoffCap       string `mapstructure:"backoff-cap"`
	MaxRateLimitWait string `mapstructure:"max-rate-limit-wait"`

	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	Color string `mapstructure:"color"`
}

// ProcessAndValidate parses and validates raw input, populating cfg.
// Required-target checks (owner/repo/workflow/token) are deferred to
// Config.RequireTarget so cache and store commands can skip them.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	cfg.Token = input.Token
	cfg.Owner = input.Owner
	cfg.Repo = input.Repo
	cfg.WorkflowID = input.Workflow
	cfg.Branch = input.Branch
	cfg.ForceRefresh = input.Force

	// Resolve the analysis window: explicit start/end beat weeks-back.
	end := time.Now().UTC()
	if input.End != "" {
		t, err := parseTimeFlexible(input.End)
		if err != nil {
			return fmt.Errorf("invalid --end value %q: %w", input.End, err)
		}
		end = t
	}
	var start time.Time
	switch {
	case input.Start != "":
		t, err := parseTimeFlexible(input.Start)
		if err != nil {
			return fmt.Errorf("invalid --start value %q: %w", input.Start, err)
		}
		start = t
	default:
		weeks := input.Weeks
		if weeks <= 0 {
			weeks = DefaultWeeks
		}
		start = end.AddDate(0, 0, -7*weeks)
	}
	if !start.Before(end) {
		return fmt.Errorf("start time %s must be before end time %s", start.Format(DateTimeFormat), end.Format(DateTimeFormat))
	}
	cfg.StartTime = start
	cfg.EndTime = end

	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	output := schema.OutputMode(input.Output)
	if output == "" {
		output = schema.TableOut
	}
	if _, ok := schema.ValidOutputModes[output]; !ok {
		return fmt.Errorf("invalid output mode %q. Must be table, json, csv, or parquet", input.Output)
	}
	cfg.Output = output

	cfg.Workers = input.Workers
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	cfg.APIBaseURL = input.APIBaseURL
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	var err error
	if cfg.RequestTimeout, err = parseDurationOrDefault(input.Timeout, DefaultRequestTimeout); err != nil {
		return fmt.Errorf("invalid --timeout value %q: %w", input.Timeout, err)
	}
	if cfg.BackoffBase, err = parseDurationOrDefault(input.BackoffBase, DefaultBackoffBase); err != nil {
		return fmt.Errorf("invalid --backoff-base value %q: %w", input.BackoffBase, err)
	}
	if cfg.BackoffCap, err = parseDurationOrDefault(input.BackoffCap, DefaultBackoffCap); err != nil {
		return fmt.Errorf("invalid --backoff-cap value %q: %w", input.BackoffCap, err)
	}
	if cfg.MaxRateLimitWait, err = parseDurationOrDefault(input.MaxRateLimitWait, DefaultMaxRateLimitWait); err != nil {
		return fmt.Errorf("invalid --max-rate-limit-wait value %q: %w", input.MaxRateLimitWait, err)
	}
	cfg.MaxRetries = input.MaxRetries
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	cfg.CacheBackend = schema.DatabaseBackend(input.CacheBackend)
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	cfg.StoreBackend = schema.DatabaseBackend(input.StoreBackend)
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	for _, backend := range []schema.DatabaseBackend{cfg.CacheBackend, cfg.StoreBackend} {
		if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
			return fmt.Errorf("invalid database backend %q. Must be sqlite, mysql, postgresql, or none", backend)
		}
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	colors := true
	if input.Color != "" {
		colors, err = ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
	}
	cfg.UseColors = colors

	return nil
}

// Clone returns a shallow copy of the config, so callers can adjust fields
// for one request without mutating the shared instance.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// RequireTarget validates the fields that only ingestion and reporting need.
func (c *Config) RequireTarget() error {
	if c.Owner == "" {
		return errors.New("--owner is required")
	}
	if c.Repo == "" {
		return errors.New("--repo is required")
	}
	if c.WorkflowID == "" {
		return errors.New("--workflow is required")
	}
	return nil
}

// RequireToken validates the credential needed for API access.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return errors.New("GitHub token not provided. Set ACTIONSTAT_TOKEN or use --token")
	}
	return nil
}

// ValidateDatabaseConnectionString performs basic validation for backends
// that need a connection string. SQLite falls back to a default file path.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s backend requires a connection string", backend)
		}
	case schema.SQLiteBackend, schema.NoneBackend:
		// No connection string required
	default:
		return fmt.Errorf("unsupported backend: %s", backend)
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a prefix is set.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// parseTimeFlexible accepts RFC3339 or a plain date.
func parseTimeFlexible(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseDurationOrDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

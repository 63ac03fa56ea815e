// Package bootstrap creates and validates an Amber installation: the home
// directory layout, the default configuration file, and a migrated status
// store. Initialize is idempotent unless Force is set.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danve93/Amber-sub001/internal/config"
	"github.com/danve93/Amber-sub001/internal/database"
)

// homeDirs are the subdirectories created under the home directory.
var homeDirs = []string{"data"}

// InitOptions configures the initialization process
type InitOptions struct {
	// HomeDir is the root directory for the Amber installation.
	// If empty, uses the default from config.DefaultConfig().
	HomeDir string

	// Force recreates the config file and database even if they exist.
	// WARNING: this discards the existing status store.
	Force bool
}

// InitResult contains the results of the initialization process
type InitResult struct {
	// HomeDir is the final home directory used
	HomeDir string

	// DirsCreated lists all directories that were created (not pre-existing)
	DirsCreated []string

	// ConfigCreated indicates whether a new config was created
	ConfigCreated bool

	// DatabaseCreated indicates whether a new database was created
	DatabaseCreated bool

	// SchemaVersion is the status-store schema version after migration
	SchemaVersion int

	// Warnings contains any warning messages
	Warnings []string
}

// Initializer sets up an Amber home directory.
type Initializer struct {
	configLoader config.ConfigLoader
	dbOpener     func(path string) (*database.DB, error)
}

// NewInitializer creates an Initializer with the provided dependencies
func NewInitializer(
	configLoader config.ConfigLoader,
	dbOpener func(path string) (*database.DB, error),
) *Initializer {
	return &Initializer{
		configLoader: configLoader,
		dbOpener:     dbOpener,
	}
}

// NewDefaultInitializer creates an Initializer with standard dependencies
func NewDefaultInitializer() *Initializer {
	return NewInitializer(
		config.NewConfigLoader(config.NewValidator()),
		database.Open,
	)
}

// Initialize performs the complete initialization process:
//
//  1. Determine and create the home directory
//  2. Create the directory structure
//  3. Write the default configuration (kept if present and valid)
//  4. Open the status store and apply schema migrations
//  5. Validate the complete setup
//
// Running it twice on the same directory with Force=false changes nothing.
func (i *Initializer) Initialize(ctx context.Context, opts InitOptions) (*InitResult, error) {
	result := &InitResult{
		DirsCreated: []string{},
		Warnings:    []string{},
	}

	homeDir := opts.HomeDir
	if homeDir == "" {
		homeDir = config.DefaultConfig().Core.HomeDir
	}
	result.HomeDir = homeDir

	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create home directory %s: %w", homeDir, err)
	}

	if err := i.createDirectories(homeDir, result); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	configPath := filepath.Join(homeDir, "config.yaml")
	if err := i.initializeConfig(configPath, homeDir, result, opts.Force); err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	dbPath := filepath.Join(homeDir, "amber.db")
	if err := i.initializeDatabase(ctx, dbPath, result, opts.Force); err != nil {
		return nil, fmt.Errorf("failed to initialize status store: %w", err)
	}

	validation, err := ValidateSetup(ctx, homeDir)
	if err != nil {
		return nil, fmt.Errorf("post-initialization validation failed: %w", err)
	}
	for _, verr := range validation.Errors {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", verr.Component, verr.Message))
	}
	for _, warning := range validation.Warnings {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", warning.Component, warning.Message))
	}

	return result, nil
}

// createDirectories creates the standard layout and tracks which entries
// were actually new.
func (i *Initializer) createDirectories(homeDir string, result *InitResult) error {
	for _, dir := range homeDirs {
		fullPath := filepath.Join(homeDir, dir)

		_, err := os.Stat(fullPath)
		existed := err == nil

		if err := os.MkdirAll(fullPath, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
		}

		if !existed {
			result.DirsCreated = append(result.DirsCreated, fullPath)
		}
	}

	return nil
}

// initializeConfig writes the default config file. An existing file is left
// alone unless force is set; an existing but unloadable file is reported as
// a warning rather than replaced.
func (i *Initializer) initializeConfig(
	configPath string,
	homeDir string,
	result *InitResult,
	force bool,
) error {
	_, err := os.Stat(configPath)
	configExists := err == nil

	if configExists && !force {
		if _, err := i.configLoader.Load(configPath); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("existing config is invalid: %v", err))
		}
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Core.HomeDir = homeDir
	cfg.Core.DataDir = filepath.Join(homeDir, "data")
	cfg.Database.Path = filepath.Join(homeDir, "amber.db")

	if err := writeConfigFile(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	result.ConfigCreated = true
	if configExists {
		result.Warnings = append(result.Warnings, "overwrote existing configuration (--force mode)")
	}

	return nil
}

// initializeDatabase opens (creating if needed) the status store and applies
// all pending schema migrations.
func (i *Initializer) initializeDatabase(
	ctx context.Context,
	dbPath string,
	result *InitResult,
	force bool,
) error {
	_, err := os.Stat(dbPath)
	dbExists := err == nil

	if dbExists && force {
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
		result.Warnings = append(result.Warnings, "removed existing database (--force mode)")
	}

	db, err := i.dbOpener(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	result.SchemaVersion = version

	// A force run removed the old file above, so the open created a fresh
	// database either way.
	if !dbExists || force {
		result.DatabaseCreated = true
	}

	return nil
}

// writeConfigFile renders the config as commented YAML. The template is
// verified against the Config struct by the package tests.
func writeConfigFile(path string, cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# Amber configuration.
# Durations accept Go syntax: 300ms, 5s, 2m, 1h.

core:
  home_dir: %s
  data_dir: %s
  timeout: %s
  debug: %t

# SQLite status store for document lifecycle state.
database:
  path: %s
  max_connections: %d
  timeout: %s
  wal_mode: %t
  auto_vacuum: %t

# Neo4j knowledge graph.
graph:
  uri: %s
  username: %s
  password: %s
  database: %s
  max_connection_pool_size: %d
  connection_timeout: %s
  max_transaction_retry_time: %s

# Status-change event publishing: redis, bus, or none.
events:
  provider: %s
  redis:
    addr: %s
    db: %d
    channel_prefix: %s

# Stale-document recovery scanner.
recovery:
  enabled: %t
  on_startup: %t
  interval: %s
  parallelism: %d
  deadline: %s

# Structured query routing.
query:
  default_limit: %d
  max_limit: %d
  fallback:
    enabled: %t
    timeout: %s
    min_confidence: %g
    rate_per_minute: %d

# LLM provider backing the fallback intent classifier.
llm:
  provider: %s
  model: %s

server:
  host: %s
  port: %d
  read_timeout: %s
  write_timeout: %s
  shutdown_timeout: %s

logging:
  level: %s
  format: %s

tracing:
  enabled: %t
  endpoint: %s
  insecure: %t
  sample_rate: %g
`,
		cfg.Core.HomeDir,
		cfg.Core.DataDir,
		cfg.Core.Timeout,
		cfg.Core.Debug,
		cfg.Database.Path,
		cfg.Database.MaxConnections,
		cfg.Database.Timeout,
		cfg.Database.WALMode,
		cfg.Database.AutoVacuum,
		cfg.Graph.URI,
		cfg.Graph.Username,
		cfg.Graph.Password,
		cfg.Graph.Database,
		cfg.Graph.MaxConnectionPoolSize,
		cfg.Graph.ConnectionTimeout,
		cfg.Graph.MaxTransactionRetryTime,
		cfg.Events.Provider,
		cfg.Events.Redis.Addr,
		cfg.Events.Redis.DB,
		cfg.Events.Redis.ChannelPrefix,
		cfg.Recovery.Enabled,
		cfg.Recovery.OnStartup,
		cfg.Recovery.Interval,
		cfg.Recovery.Parallelism,
		cfg.Recovery.Deadline,
		cfg.Query.DefaultLimit,
		cfg.Query.MaxLimit,
		cfg.Query.Fallback.Enabled,
		cfg.Query.Fallback.Timeout,
		cfg.Query.Fallback.MinConfidence,
		cfg.Query.Fallback.RatePerMinute,
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.Server.Host,
		cfg.Server.Port,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		cfg.Server.ShutdownTimeout,
		cfg.Logging.Level,
		cfg.Logging.Format,
		cfg.Tracing.Enabled,
		cfg.Tracing.Endpoint,
		cfg.Tracing.Insecure,
		cfg.Tracing.SampleRate,
	)

	return os.WriteFile(path, []byte(content), 0o644)
}

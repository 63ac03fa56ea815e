package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/danve93/Amber-sub001/internal/config"
	"github.com/danve93/Amber-sub001/internal/database"
)

// ValidationResult aggregates everything wrong with an installation instead
// of stopping at the first problem, so one check shows the whole picture.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError names the broken component and tells the operator how to
// fix it.
type ValidationError struct {
	Component string
	Message   string
	Action    string
}

// ValidationWarning flags something suspicious that does not block startup.
type ValidationWarning struct {
	Component string
	Message   string
}

func (r *ValidationResult) fail(component, message, action string) {
	r.Errors = append(r.Errors, ValidationError{Component: component, Message: message, Action: action})
}

func (r *ValidationResult) warn(component, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Component: component, Message: message})
}

// ValidateSetup checks an Amber installation: required directories exist,
// the configuration file parses and validates, and the status store opens
// with a migrated schema.
func ValidateSetup(ctx context.Context, homeDir string) (*ValidationResult, error) {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	ok, err := checkHomeDir(homeDir, result)
	if err != nil {
		return nil, err
	}
	if ok {
		checkDirectories(homeDir, result)
		checkConfigFile(homeDir, result)
		checkStatusStore(ctx, homeDir, result)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// checkHomeDir reports whether the home directory exists as a directory. The
// remaining checks are skipped when it does not; they would only repeat the
// same failure several more times.
func checkHomeDir(homeDir string, result *ValidationResult) (bool, error) {
	info, err := os.Stat(homeDir)
	switch {
	case os.IsNotExist(err):
		result.fail("home_directory",
			fmt.Sprintf("home directory does not exist: %s", homeDir),
			"run 'amber init' to create it")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to stat home directory: %w", err)
	case !info.IsDir():
		result.fail("home_directory",
			fmt.Sprintf("home path exists but is not a directory: %s", homeDir),
			fmt.Sprintf("remove the file and run 'amber init': rm %s && amber init", homeDir))
		return false, nil
	}
	return true, nil
}

func checkDirectories(homeDir string, result *ValidationResult) {
	for _, dir := range homeDirs {
		fullPath := filepath.Join(homeDir, dir)
		if info, err := os.Stat(fullPath); err != nil || !info.IsDir() {
			result.fail("directories",
				fmt.Sprintf("required directory missing: %s", fullPath),
				fmt.Sprintf("create it with: mkdir -p %s", fullPath))
		}
	}
}

// checkConfigFile verifies the configuration is valid YAML and passes the
// loader. The raw syntax check runs first so a broken file reports a YAML
// position instead of a vaguer loader failure.
func checkConfigFile(homeDir string, result *ValidationResult) {
	configPath := filepath.Join(homeDir, "config.yaml")

	raw, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		result.fail("config",
			fmt.Sprintf("configuration file not found: %s", configPath),
			"run 'amber init' to create default configuration")
		return
	case err != nil:
		result.fail("config",
			fmt.Sprintf("failed to read config file: %v", err),
			"check file permissions")
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		result.fail("config",
			fmt.Sprintf("config is not valid YAML: %v", err),
			"fix the syntax error or run 'amber init --force' to recreate")
		return
	}

	cfg, err := config.NewConfigLoader(config.NewValidator()).Load(configPath)
	if err != nil {
		result.fail("config",
			fmt.Sprintf("invalid configuration file: %v", err),
			"fix configuration file or run 'amber init --force' to recreate")
		return
	}

	if cfg.Core.HomeDir != homeDir {
		result.warn("config",
			fmt.Sprintf("config home_dir (%s) doesn't match current home (%s)", cfg.Core.HomeDir, homeDir))
	}
}

// checkStatusStore opens the SQLite store and reads the schema version. Open
// alone exercises the WAL pragmas, so a corrupt or foreign file fails there.
func checkStatusStore(ctx context.Context, homeDir string, result *ValidationResult) {
	dbPath := filepath.Join(homeDir, "amber.db")

	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			result.fail("database",
				fmt.Sprintf("status store not found: %s", dbPath),
				"run 'amber init' to create it")
		} else {
			result.fail("database",
				fmt.Sprintf("failed to stat status store: %v", err),
				"check file permissions and run 'amber init'")
		}
		return
	}

	db, err := database.Open(dbPath)
	if err != nil {
		result.fail("database",
			fmt.Sprintf("failed to open status store: %v", err),
			"store may be corrupted, run 'amber init --force' to recreate (WARNING: will lose data)")
		return
	}
	defer db.Close()

	version, err := database.NewMigrator(db).CurrentVersion(ctx)
	if err != nil {
		result.fail("database",
			fmt.Sprintf("failed to read schema version: %v", err),
			"run 'amber init' to apply migrations")
		return
	}
	if version == 0 {
		result.warn("database", "schema has no migrations applied, run 'amber init'")
	}
}

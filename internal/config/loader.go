package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/danve93/Amber-sub001/internal/util"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{validator: validator}
}

// Load reads the file at path on top of the defaults, so partial files stay
// usable. AMBER_* environment variables override file values, and ${VAR}
// references inside values are interpolated before validation.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AMBER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, s := range stringSettings(cfg) {
		*s = interpolateString(*s)
	}

	if err := expandPaths(cfg); err != nil {
		return nil, fmt.Errorf("failed to expand config paths: %w", err)
	}

	if err := l.validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults behaves like Load, except a missing file yields the
// validated defaults instead of an error.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, fmt.Errorf("default configuration validation failed: %w", err)
		}
		return cfg, nil
	}
	return l.Load(path)
}

// stringSettings returns pointers to every setting that may carry secrets,
// hostnames, or paths. Interpolation walks this list, so a new string field
// only needs an entry here to pick up ${VAR} support.
func stringSettings(cfg *Config) []*string {
	return []*string{
		&cfg.Core.HomeDir, &cfg.Core.DataDir,
		&cfg.Database.Path,
		&cfg.Graph.URI, &cfg.Graph.Username, &cfg.Graph.Password, &cfg.Graph.Database,
		&cfg.Events.Redis.Addr, &cfg.Events.Redis.Password, &cfg.Events.Redis.ChannelPrefix,
		&cfg.LLM.Provider, &cfg.LLM.Model, &cfg.LLM.BaseURL, &cfg.LLM.APIKey,
		&cfg.Server.Host,
		&cfg.Logging.Level, &cfg.Logging.Format,
		&cfg.Tracing.Endpoint,
	}
}

// envVarPattern matches ${VAR_NAME} references in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset or empty variables leave the reference untouched so validation can
// flag them.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}

// expandPaths applies tilde and environment expansion to the settings that
// name filesystem locations.
func expandPaths(cfg *Config) error {
	for _, p := range []*string{&cfg.Core.HomeDir, &cfg.Core.DataDir, &cfg.Database.Path} {
		expanded, err := util.ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

package config

import (
	"time"
)

// Config is the root configuration for the Amber platform core.
type Config struct {
	Core     CoreConfig     `mapstructure:"core" yaml:"core" validate:"required"`
	Database DBConfig       `mapstructure:"database" yaml:"database" validate:"required"`
	Graph    GraphConfig    `mapstructure:"graph" yaml:"graph"`
	Events   EventsConfig   `mapstructure:"events" yaml:"events"`
	Recovery RecoveryConfig `mapstructure:"recovery" yaml:"recovery"`
	Query    QueryConfig    `mapstructure:"query" yaml:"query"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string        `mapstructure:"home_dir" yaml:"home_dir"`
	DataDir string        `mapstructure:"data_dir" yaml:"data_dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
}

// DBConfig contains status-store (SQLite) configuration.
type DBConfig struct {
	Path           string        `mapstructure:"path" yaml:"path"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	WALMode        bool          `mapstructure:"wal_mode" yaml:"wal_mode"`
	AutoVacuum     bool          `mapstructure:"auto_vacuum" yaml:"auto_vacuum"`
}

// GraphConfig contains Neo4j connection settings.
type GraphConfig struct {
	URI                     string        `mapstructure:"uri" yaml:"uri"`
	Username                string        `mapstructure:"username" yaml:"username"`
	Password                string        `mapstructure:"password" yaml:"password"`
	Database                string        `mapstructure:"database" yaml:"database"`
	MaxConnectionPoolSize   int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time"`
}

// EventsConfig selects and configures the status-change event publisher.
// Provider is one of "redis", "bus", or "none".
type EventsConfig struct {
	Provider string      `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=redis bus none"`
	Redis    RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig contains Redis pub/sub settings for the event publisher.
type RedisConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	Password      string `mapstructure:"password" yaml:"password,omitempty"`
	DB            int    `mapstructure:"db" yaml:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix" yaml:"channel_prefix"`
}

// RecoveryConfig controls the stale-document recovery scanner.
// StaleStatuses is the set of statuses the scanner treats as abandoned
// in-flight work; when empty the non-terminal pipeline statuses apply.
type RecoveryConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	OnStartup     bool          `mapstructure:"on_startup" yaml:"on_startup"`
	Interval      time.Duration `mapstructure:"interval" yaml:"interval"`
	Parallelism   int           `mapstructure:"parallelism" yaml:"parallelism" validate:"min=1,max=64"`
	Deadline      time.Duration `mapstructure:"deadline" yaml:"deadline"`
	StaleStatuses []string      `mapstructure:"stale_statuses" yaml:"stale_statuses,omitempty"`
}

// QueryConfig controls structured query detection and execution.
type QueryConfig struct {
	DefaultLimit int            `mapstructure:"default_limit" yaml:"default_limit" validate:"min=1"`
	MaxLimit     int            `mapstructure:"max_limit" yaml:"max_limit" validate:"min=1"`
	Fallback     FallbackConfig `mapstructure:"fallback" yaml:"fallback"`
}

// FallbackConfig controls the secondary LLM intent classifier used when
// pattern rules fail on an ambiguous query.
type FallbackConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence" validate:"min=0,max=1"`
	RatePerMinute int           `mapstructure:"rate_per_minute" yaml:"rate_per_minute" validate:"min=0"`
}

// LLMConfig contains the provider backing the fallback classifier.
type LLMConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=openai anthropic ollama"`
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"min=0,max=1"`
}

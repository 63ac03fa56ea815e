package config

import (
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			DataDir: filepath.Join(homeDir, "data"),
			Timeout: 5 * time.Minute,
			Debug:   false,
		},
		Database: DBConfig{
			Path:           filepath.Join(homeDir, "amber.db"),
			MaxConnections: 10,
			Timeout:        30 * time.Second,
			WALMode:        true,
			AutoVacuum:     true,
		},
		Graph: GraphConfig{
			URI:                     "bolt://localhost:7687",
			Username:                "neo4j",
			Password:                "password",
			Database:                "neo4j",
			MaxConnectionPoolSize:   50,
			ConnectionTimeout:       30 * time.Second,
			MaxTransactionRetryTime: 30 * time.Second,
		},
		Events: EventsConfig{
			Provider: "none",
			Redis: RedisConfig{
				Addr:          "localhost:6379",
				DB:            0,
				ChannelPrefix: "amber.",
			},
		},
		Recovery: RecoveryConfig{
			Enabled:     true,
			OnStartup:   true,
			Interval:    0,
			Parallelism: 1,
			Deadline:    0,
		},
		Query: QueryConfig{
			DefaultLimit: 50,
			MaxLimit:     500,
			Fallback: FallbackConfig{
				Enabled:       false,
				Timeout:       2 * time.Second,
				MinConfidence: 0.6,
				RatePerMinute: 30,
			},
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3",
			BaseURL:  "",
			APIKey:   "",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Endpoint:   "",
			Insecure:   true,
			SampleRate: 1.0,
		},
	}
}

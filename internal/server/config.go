package server

import (
	"fmt"
	"time"

	"github.com/danve93/Amber-sub001/internal/types"
)

// Config holds the HTTP server settings.
type Config struct {
	// Host is the listen interface. Empty binds all interfaces.
	Host string

	// Port is the listen port. Port 0 asks the kernel for a free port,
	// which tests use.
	Port int

	// ReadTimeout bounds reading the full request, including the body.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds the graceful drain on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return types.NewError(ErrCodeServerInvalidConfig, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return types.NewError(ErrCodeServerInvalidConfig, "timeouts cannot be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return types.NewError(ErrCodeServerInvalidConfig, "shutdown timeout must be positive")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

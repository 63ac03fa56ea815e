package graph

import (
	"context"
	"time"

	"github.com/danve93/Amber-sub001/internal/types"
)

// GraphClient is the read-side interface to the knowledge graph. The
// structured query path and the stats surface only read; graph writes belong
// to the ingestion workers outside this core.
//
// Implementations must be safe for concurrent use.
type GraphClient interface {
	// Connect dials the graph store. The other methods require a prior
	// successful Connect.
	Connect(ctx context.Context) error

	// Close releases the connection. Safe to call without a prior Connect.
	Close(ctx context.Context) error

	// Health reports whether the graph store currently answers.
	Health(ctx context.Context) types.HealthStatus

	// Query runs a read-only Cypher statement with bound parameters.
	Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error)
}

// QueryResult is a fully materialized Cypher result set.
//
// A query that matches zero rows yields a non-nil QueryResult with an empty
// Records slice; callers must not confuse that with a failed query.
type QueryResult struct {
	// Records holds the rows as column-name-to-value maps.
	Records []map[string]any

	// Columns holds the column names of the result set.
	Columns []string

	// Summary carries execution metadata.
	Summary QuerySummary
}

// QuerySummary carries metadata about a query execution.
type QuerySummary struct {
	ExecutionTime time.Duration
}

// GraphClientConfig configures a graph store connection. The URI scheme
// selects transport security: bolt:// is plaintext, bolt+s:// is TLS,
// bolt+ssc:// accepts self-signed certificates, and neo4j:// variants
// enable routing.
type GraphClientConfig struct {
	URI      string
	Username string
	Password string

	// Database selects the named database; empty uses the server default.
	Database string

	// MaxConnectionPoolSize caps pooled connections. Zero or negative uses
	// the driver default.
	MaxConnectionPoolSize int

	ConnectionTimeout       time.Duration
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a GraphClientConfig aimed at a local development
// graph store.
func DefaultConfig() GraphClientConfig {
	return GraphClientConfig{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		Database:                "",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate reports the first configuration problem found.
func (c GraphClientConfig) Validate() error {
	switch {
	case c.URI == "":
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	case c.Username == "":
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	case c.Password == "":
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	case c.ConnectionTimeout <= 0:
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	case c.MaxTransactionRetryTime <= 0:
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	return nil
}

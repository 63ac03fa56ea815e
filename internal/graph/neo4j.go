package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/danve93/Amber-sub001/internal/types"
)

// healthProbeTimeout bounds the connectivity check so a wedged graph store
// cannot stall the readiness endpoint.
const healthProbeTimeout = 5 * time.Second

// Neo4jClient implements GraphClient on the official Bolt driver. The driver
// pools connections internally, so one client serves the whole process.
type Neo4jClient struct {
	config GraphClientConfig
	driver neo4j.DriverWithContext
}

// NewNeo4jClient validates the configuration and returns an unconnected
// client. Call Connect before issuing queries.
func NewNeo4jClient(config GraphClientConfig) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Neo4jClient{config: config}, nil
}

// Connect builds the driver and verifies connectivity with exponential
// backoff. In compose-style deployments the graph store often comes up
// seconds after this process, so early probes are expected to fail.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	driver, err := neo4j.NewDriverWithContext(
		c.config.URI,
		neo4j.BasicAuth(c.config.Username, c.config.Password, ""),
		func(conf *neo4j.Config) {
			conf.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
			conf.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
			conf.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
		},
	)
	if err != nil {
		// A malformed URI does not heal with retries.
		return types.WrapError(ErrCodeGraphConnectionFailed, "failed to build driver", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	err = backoff.Retry(func() error {
		return driver.VerifyConnectivity(probeCtx)
	}, backoff.WithContext(policy, probeCtx))
	if err != nil {
		_ = driver.Close(ctx)
		return types.WrapRetryableError(ErrCodeGraphConnectionFailed,
			fmt.Sprintf("graph store unreachable at %s", c.config.URI), err)
	}

	c.driver = driver
	return nil
}

// Close releases the driver. Safe to call without a prior Connect.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	if err := c.driver.Close(ctx); err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed, "failed to close driver", err)
	}
	c.driver = nil
	return nil
}

// Health probes connectivity with a bounded timeout.
func (c *Neo4jClient) Health(ctx context.Context) types.HealthStatus {
	if c.driver == nil {
		return types.Unhealthy("driver not connected")
	}

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	if err := c.driver.VerifyConnectivity(probeCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}
	return types.Healthy("connected to Neo4j")
}

// Query runs the statement inside a managed read transaction and returns the
// fully materialized result set.
func (c *Neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error) {
	if c.driver == nil {
		return nil, types.NewError(ErrCodeGraphConnectionClosed, "driver not connected")
	}

	start := time.Now()
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
	defer session.Close(ctx)

	collected, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return cursor.Collect(ctx)
	})
	if err != nil {
		return nil, types.WrapRetryableError(ErrCodeGraphQueryFailed, "query execution failed", err)
	}

	result := resultFromRecords(collected.([]*neo4j.Record))
	result.Summary.ExecutionTime = time.Since(start)
	return result, nil
}

// resultFromRecords flattens driver records into plain maps so callers never
// touch driver types.
func resultFromRecords(records []*neo4j.Record) *QueryResult {
	result := &QueryResult{
		Records: make([]map[string]any, 0, len(records)),
		Columns: []string{},
	}
	if len(records) > 0 {
		result.Columns = records[0].Keys
	}
	for _, record := range records {
		result.Records = append(result.Records, record.AsMap())
	}
	return result
}

var _ GraphClient = (*Neo4jClient)(nil)

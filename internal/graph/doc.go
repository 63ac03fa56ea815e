// Package graph provides the knowledge-graph client abstraction for Amber.
//
// This package defines a generic GraphClient interface that can be implemented
// for different graph database backends. The primary implementation is for
// Neo4j, but the interface design allows for other graph databases to be
// integrated.
//
// # Architecture
//
// The package follows a clean interface-based design:
//
//   - GraphClient: Core interface defining graph read operations
//   - Neo4jClient: Production implementation using the Neo4j Go driver
//   - MockGraphClient: Test implementation for unit testing
//
// Only read operations are exposed: the structured query executor and the
// admin stats collector consume the graph, while writes happen in the
// ingestion workers outside this module.
//
// # Usage
//
// Basic usage with Neo4j:
//
//	config := graph.DefaultConfig()
//	config.URI = "bolt://localhost:7687"
//	config.Username = "neo4j"
//	config.Password = "password"
//
//	client, err := graph.NewNeo4jClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	result, err := client.Query(ctx,
//	    "MATCH (d:Document {tenant_id: $tenant_id}) RETURN d.filename AS filename LIMIT $limit",
//	    map[string]any{"tenant_id": "tenant-a", "limit": 50},
//	)
//
// # Error Handling
//
// All errors are wrapped in types.AmberError with GRAPH_* error codes so
// callers can distinguish connection failures (retryable) from query and
// configuration errors.
package graph

package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/types"
)

// Graph-side count statements. Both are global: the stats surface is an
// operator view, not a tenant view.
const (
	entityCountCypher       = "MATCH (e:Entity) RETURN count(e) AS count"
	relationshipCountCypher = "MATCH ()-[r]->() RETURN count(r) AS count"
)

// DocumentCounter is the slice of the document store the collector needs.
type DocumentCounter interface {
	CountByStatus(ctx context.Context) (map[types.DocumentStatus]int64, error)
}

var _ DocumentCounter = (database.DocumentDAO)(nil)

// StatsCollector assembles the operator stats snapshot served by the admin
// API. The relational store is authoritative: if it cannot be counted the
// collection fails. The graph store is best-effort: an unreachable graph
// degrades Entities and Relationships to -1 so operators can tell "graph
// down" apart from "graph empty".
type StatsCollector struct {
	store  DocumentCounter
	graph  graph.GraphClient
	logger *slog.Logger
}

// NewStatsCollector creates a collector. graphClient may be nil when no
// graph store is configured; graph counts are then always reported as -1.
func NewStatsCollector(store DocumentCounter, graphClient graph.GraphClient, logger *slog.Logger) (*StatsCollector, error) {
	if store == nil {
		return nil, types.NewError(ErrCodeStatsUnavailable, "document store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCollector{
		store:  store,
		graph:  graphClient,
		logger: logger,
	}, nil
}

// Collect builds one stats snapshot.
func (c *StatsCollector) Collect(ctx context.Context) (*types.DatabaseStats, error) {
	counts, err := c.store.CountByStatus(ctx)
	if err != nil {
		return nil, types.WrapError(ErrCodeStatsUnavailable, "counting documents", err)
	}

	// Every status appears in the payload even when no document holds it,
	// so consumers get a stable shape.
	for _, status := range types.ActiveStatuses() {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	for _, status := range types.TerminalStatuses() {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	stats := &types.DatabaseStats{
		Documents:     counts,
		Entities:      -1,
		Relationships: -1,
		CollectedAt:   time.Now().UTC(),
	}
	for _, n := range counts {
		stats.TotalDocuments += n
	}

	if c.graph == nil {
		c.logger.DebugContext(ctx, "no graph client configured, graph counts degraded")
		return stats, nil
	}

	if n, err := c.countGraph(ctx, entityCountCypher); err != nil {
		c.logger.WarnContext(ctx, "entity count unavailable", "error", err)
	} else {
		stats.Entities = n
	}

	if n, err := c.countGraph(ctx, relationshipCountCypher); err != nil {
		c.logger.WarnContext(ctx, "relationship count unavailable", "error", err)
	} else {
		stats.Relationships = n
	}

	return stats, nil
}

func (c *StatsCollector) countGraph(ctx context.Context, cypher string) (int64, error) {
	result, err := c.graph.Query(ctx, cypher, nil)
	if err != nil {
		return 0, err
	}
	if result == nil || len(result.Records) == 0 {
		return 0, types.NewError(graph.ErrCodeGraphResultParsing, "count query returned no rows")
	}
	n, ok := toInt64(result.Records[0]["count"])
	if !ok {
		return 0, types.NewError(graph.ErrCodeGraphResultParsing, "count column is not numeric")
	}
	return n, nil
}

// toInt64 coerces the numeric types the neo4j driver hands back.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

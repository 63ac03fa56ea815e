package structured

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/types"
)

// Result is the outcome of executing a structured intent against the graph.
type Result struct {
	// QueryType is the intent that produced this result.
	QueryType QueryType `json:"query_type"`

	// Data holds the returned rows. For list intents it is the row set,
	// present and empty when nothing matched; for count intents it is the
	// single aggregate row. It is never nil on a successful execution.
	Data []map[string]any `json:"data"`

	// Count is the row count for list intents and the aggregate value for
	// count intents.
	Count int64 `json:"count"`
}

// Executor binds detected intents to Cypher templates and runs them.
//
// Execution distinguishes "the store answered with nothing" from "the store
// could not answer": an empty row set on a list intent is a valid result,
// while any store error (and a count query yielding no aggregate row)
// surfaces as an error so the caller can fall through to another pipeline.
type Executor struct {
	templates TemplateSet
	client    graph.GraphClient
	logger    *slog.Logger
}

// NewExecutor creates an executor over the given template set. The set is
// validated here so a malformed template fails construction, not a request.
func NewExecutor(client graph.GraphClient, templates TemplateSet, logger *slog.Logger) (*Executor, error) {
	if client == nil {
		return nil, types.NewError(ErrCodeStoreUnavailable, "graph client is required")
	}
	if templates == nil {
		templates = DefaultTemplates()
	}
	if err := templates.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		templates: templates,
		client:    client,
		logger:    logger,
	}, nil
}

// Execute runs the template for the intent with every variable bound as a
// parameter. tenantID scopes the query and must not be empty.
func (e *Executor) Execute(ctx context.Context, intent Intent, tenantID string) (*Result, error) {
	if !intent.Type.IsStructured() {
		return nil, types.NewError(ErrCodeInvalidIntent,
			fmt.Sprintf("query type %q is not executable", intent.Type))
	}
	if tenantID == "" {
		return nil, types.NewError(ErrCodeInvalidIntent, "tenant id is required")
	}

	tmpl, ok := e.templates[intent.Type]
	if !ok {
		return nil, types.NewError(ErrCodeTemplateMissing,
			fmt.Sprintf("no template registered for query type %q", intent.Type))
	}

	params := map[string]any{"tenant_id": tenantID}
	if tmpl.UsesLimit {
		params["limit"] = clampLimit(intent.Limit)
	}
	for _, f := range tmpl.Filters {
		params[f] = intent.Filter(f)
	}

	result, err := e.client.Query(ctx, tmpl.Cypher, params)
	if err != nil {
		return nil, types.WrapRetryableError(ErrCodeStoreUnavailable,
			fmt.Sprintf("graph query for %q failed", intent.Type), err)
	}

	if intent.Type.IsCount() {
		return e.countResult(intent.Type, result)
	}

	rows := result.Records
	if rows == nil {
		rows = []map[string]any{}
	}
	return &Result{
		QueryType: intent.Type,
		Data:      rows,
		Count:     int64(len(rows)),
	}, nil
}

// countResult extracts the aggregate from a count query. A count statement
// always yields exactly one row, so an empty result means the store did not
// actually answer.
func (e *Executor) countResult(qtype QueryType, result *graph.QueryResult) (*Result, error) {
	if len(result.Records) == 0 {
		return nil, types.NewError(ErrCodeStoreUnavailable,
			fmt.Sprintf("count query for %q returned no rows", qtype))
	}

	value, ok := toInt64(result.Records[0]["count"])
	if !ok {
		return nil, types.NewError(ErrCodeStoreUnavailable,
			fmt.Sprintf("count query for %q returned a non-numeric aggregate", qtype))
	}

	return &Result{
		QueryType: qtype,
		Data:      result.Records[:1],
		Count:     value,
	}, nil
}

// clampLimit holds the bound limit to [1, MaxLimit]. Detector output is
// already clamped; this covers intents built anywhere else.
func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// toInt64 coerces the numeric types the graph driver may hand back.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

package structured

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/types"
)

func newTestExecutor(t *testing.T, client graph.GraphClient) *Executor {
	t.Helper()
	executor, err := NewExecutor(client, DefaultTemplates(), slog.Default())
	require.NoError(t, err)
	return executor
}

func listIntent(qtype QueryType) Intent {
	return Intent{Type: qtype, Filters: map[string]string{}, Limit: 50}
}

func TestNewExecutor(t *testing.T) {
	t.Run("nil client rejected", func(t *testing.T) {
		_, err := NewExecutor(nil, DefaultTemplates(), slog.Default())
		require.Error(t, err)
	})

	t.Run("nil templates use defaults", func(t *testing.T) {
		executor, err := NewExecutor(graph.NewMockGraphClient(), nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, executor)
	})

	t.Run("invalid templates rejected", func(t *testing.T) {
		templates := DefaultTemplates()
		delete(templates, QueryTypeListRelationships)

		_, err := NewExecutor(graph.NewMockGraphClient(), templates, slog.Default())
		require.Error(t, err)
		code, _ := types.CodeOf(err)
		assert.Equal(t, ErrCodeTemplateMissing, code)
	})
}

func TestExecutor_ListDocuments(t *testing.T) {
	client := graph.NewMockGraphClient()
	client.AddQueryResult(&graph.QueryResult{
		Records: []map[string]any{
			{"id": "doc-1", "filename": "a.pdf", "status": "ready"},
			{"id": "doc-2", "filename": "b.pdf", "status": "failed"},
		},
		Columns: []string{"id", "filename", "status"},
	})

	executor := newTestExecutor(t, client)
	result, err := executor.Execute(context.Background(), listIntent(QueryTypeListDocuments), "tenant-a")

	require.NoError(t, err)
	assert.Equal(t, QueryTypeListDocuments, result.QueryType)
	assert.Equal(t, int64(2), result.Count)
	assert.Len(t, result.Data, 2)

	calls := client.GetCallsByMethod("Query")
	require.Len(t, calls, 1)
	params := calls[0].Args[1].(map[string]any)
	assert.Equal(t, "tenant-a", params["tenant_id"])
	assert.Equal(t, 50, params["limit"])
	assert.Equal(t, "", params["filename"])
}

func TestExecutor_FiltersAreBoundNotSpliced(t *testing.T) {
	client := graph.NewMockGraphClient()
	executor := newTestExecutor(t, client)

	malicious := `x' OR 1=1 RETURN d //`
	intent := Intent{
		Type:    QueryTypeListDocuments,
		Filters: map[string]string{FilterFilename: malicious},
		Limit:   10,
	}

	_, err := executor.Execute(context.Background(), intent, "tenant-a")
	require.NoError(t, err)

	calls := client.GetCallsByMethod("Query")
	require.Len(t, calls, 1)

	cypher := calls[0].Args[0].(string)
	params := calls[0].Args[1].(map[string]any)

	// Statement text is exactly the registered template; the hostile value
	// travels only as a bound parameter.
	assert.Equal(t, DefaultTemplates()[QueryTypeListDocuments].Cypher, cypher)
	assert.NotContains(t, cypher, malicious)
	assert.Equal(t, malicious, params["filename"])
}

func TestExecutor_EmptyListIsAnAnswer(t *testing.T) {
	client := graph.NewMockGraphClient()
	client.AddQueryResult(&graph.QueryResult{Records: []map[string]any{}})

	executor := newTestExecutor(t, client)
	result, err := executor.Execute(context.Background(), listIntent(QueryTypeListEntities), "tenant-a")

	require.NoError(t, err)
	require.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, int64(0), result.Count)
}

func TestExecutor_NilRecordsBecomeEmptyData(t *testing.T) {
	client := graph.NewMockGraphClient()
	client.AddQueryResult(&graph.QueryResult{Records: nil})

	executor := newTestExecutor(t, client)
	result, err := executor.Execute(context.Background(), listIntent(QueryTypeListRelationships), "tenant-a")

	require.NoError(t, err)
	require.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

func TestExecutor_Count(t *testing.T) {
	tests := []struct {
		name      string
		record    map[string]any
		wantCount int64
		wantErr   bool
	}{
		{
			name:      "int64 aggregate",
			record:    map[string]any{"count": int64(42)},
			wantCount: 42,
		},
		{
			name:      "float64 aggregate",
			record:    map[string]any{"count": float64(7)},
			wantCount: 7,
		},
		{
			name:      "zero count is a valid answer",
			record:    map[string]any{"count": int64(0)},
			wantCount: 0,
		},
		{
			name:    "non-numeric aggregate",
			record:  map[string]any{"count": "many"},
			wantErr: true,
		},
		{
			name:    "missing count column",
			record:  map[string]any{"total": int64(3)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := graph.NewMockGraphClient()
			client.AddQueryResult(&graph.QueryResult{
				Records: []map[string]any{tt.record},
				Columns: []string{"count"},
			})

			executor := newTestExecutor(t, client)
			result, err := executor.Execute(context.Background(),
				Intent{Type: QueryTypeCountDocuments, Filters: map[string]string{}},
				"tenant-a")

			if tt.wantErr {
				require.Error(t, err)
				code, ok := types.CodeOf(err)
				require.True(t, ok)
				assert.Equal(t, ErrCodeStoreUnavailable, code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, result.Count)
			assert.Len(t, result.Data, 1)
		})
	}
}

func TestExecutor_CountWithNoRowsIsAnError(t *testing.T) {
	// A count statement always yields an aggregate row; zero rows means the
	// store never actually answered.
	client := graph.NewMockGraphClient()
	client.AddQueryResult(&graph.QueryResult{Records: []map[string]any{}})

	executor := newTestExecutor(t, client)
	_, err := executor.Execute(context.Background(),
		Intent{Type: QueryTypeCountEntities, Filters: map[string]string{}},
		"tenant-a")

	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeStoreUnavailable, code)
}

func TestExecutor_StoreErrorIsRetryable(t *testing.T) {
	client := graph.NewMockGraphClient()
	client.SetQueryError(types.NewRetryableError(graph.ErrCodeGraphQueryFailed, "connection reset"))

	executor := newTestExecutor(t, client)
	_, err := executor.Execute(context.Background(), listIntent(QueryTypeListDocuments), "tenant-a")

	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeStoreUnavailable, code)
	assert.True(t, types.IsRetryable(err))
}

func TestExecutor_RejectsUnusableIntents(t *testing.T) {
	executor := newTestExecutor(t, graph.NewMockGraphClient())

	t.Run("not structured", func(t *testing.T) {
		_, err := executor.Execute(context.Background(), NotStructuredIntent(), "tenant-a")
		require.Error(t, err)
		code, _ := types.CodeOf(err)
		assert.Equal(t, ErrCodeInvalidIntent, code)
	})

	t.Run("empty tenant", func(t *testing.T) {
		_, err := executor.Execute(context.Background(), listIntent(QueryTypeListDocuments), "")
		require.Error(t, err)
		code, _ := types.CodeOf(err)
		assert.Equal(t, ErrCodeInvalidIntent, code)
	})
}

func TestExecutor_ClampsBoundLimit(t *testing.T) {
	client := graph.NewMockGraphClient()
	executor := newTestExecutor(t, client)

	// Intents built without the detector must still bind a limit in
	// [1, MaxLimit].
	_, err := executor.Execute(context.Background(),
		Intent{Type: QueryTypeListDocuments, Filters: map[string]string{}, Limit: 9999},
		"tenant-a")
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(),
		Intent{Type: QueryTypeListDocuments, Filters: map[string]string{}, Limit: 0},
		"tenant-a")
	require.NoError(t, err)

	calls := client.GetCallsByMethod("Query")
	require.Len(t, calls, 2)
	assert.Equal(t, MaxLimit, calls[0].Args[1].(map[string]any)["limit"])
	assert.Equal(t, 1, calls[1].Args[1].(map[string]any)["limit"])
}

func TestExecutor_EntityTypeFilterBinding(t *testing.T) {
	client := graph.NewMockGraphClient()
	executor := newTestExecutor(t, client)

	intent := Intent{
		Type:    QueryTypeCountEntities,
		Filters: map[string]string{FilterEntityType: "person"},
	}

	_, err := executor.Execute(context.Background(), intent, "tenant-b")
	require.Error(t, err) // empty mock result on a count

	calls := client.GetCallsByMethod("Query")
	require.Len(t, calls, 1)
	params := calls[0].Args[1].(map[string]any)
	assert.Equal(t, "person", params["entity_type"])
	assert.Equal(t, "tenant-b", params["tenant_id"])
	assert.NotContains(t, params, "limit")
}

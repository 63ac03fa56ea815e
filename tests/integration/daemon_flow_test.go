//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danve93/Amber-sub001/internal/bootstrap"
	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/events"
	"github.com/danve93/Amber-sub001/internal/graph"
	"github.com/danve93/Amber-sub001/internal/maintenance"
	"github.com/danve93/Amber-sub001/internal/recovery"
	"github.com/danve93/Amber-sub001/internal/server"
	"github.com/danve93/Amber-sub001/internal/structured"
	"github.com/danve93/Amber-sub001/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// initAmberHome bootstraps a fresh installation in a temp dir and opens its
// status store.
func initAmberHome(t *testing.T) (*database.DB, database.DocumentDAO) {
	t.Helper()

	home := filepath.Join(t.TempDir(), "amber-home")
	ctx := context.Background()

	result, err := bootstrap.NewDefaultInitializer().Initialize(ctx, bootstrap.InitOptions{HomeDir: home})
	require.NoError(t, err, "initialization failed")
	require.True(t, result.DatabaseCreated)
	require.True(t, result.ConfigCreated)

	_, err = os.Stat(filepath.Join(home, "config.yaml"))
	require.NoError(t, err, "config file missing after init")

	db, err := database.Open(filepath.Join(home, "amber.db"))
	require.NoError(t, err, "cannot open status store")
	t.Cleanup(func() { db.Close() })

	return db, database.NewDocumentDAO(db)
}

// stubGraphClient satisfies graph.GraphClient with canned rows so the
// structured query path runs without a live graph store.
type stubGraphClient struct {
	records []map[string]any
}

func (s *stubGraphClient) Connect(ctx context.Context) error { return nil }
func (s *stubGraphClient) Close(ctx context.Context) error   { return nil }
func (s *stubGraphClient) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("stub")
}
func (s *stubGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (*graph.QueryResult, error) {
	return &graph.QueryResult{Records: s.records}, nil
}

// TestRecoveryFlow_FullLifecycle drives a complete recovery pass against a
// real sqlite store:
// 1. Initialize a fresh home directory
// 2. Seed documents stranded in in-flight statuses
// 3. Run the scanner with an in-process event bus attached
// 4. Verify settled statuses, the report, and the published events
// 5. Verify a second pass is a no-op
func TestRecoveryFlow_FullLifecycle(t *testing.T) {
	_, dao := initAmberHome(t)
	ctx := context.Background()

	t.Log("Seeding stranded documents...")
	interrupted := types.NewDocumentRecord(types.NewID(), "interrupted.pdf")
	require.NoError(t, dao.Create(ctx, interrupted))

	complete := types.NewDocumentRecord(types.NewID(), "complete.pdf")
	complete.Status = types.DocumentStatusChunking
	require.NoError(t, dao.Create(ctx, complete))
	require.NoError(t, dao.InsertChunk(ctx, types.NewChunk(complete.ID, 0, "chunk body")))

	done := types.NewDocumentRecord(types.NewID(), "done.pdf")
	done.Status = types.DocumentStatusReady
	require.NoError(t, dao.Create(ctx, done))

	bus := events.NewEventBus()
	defer bus.Close()
	eventCh, unsubscribe := bus.Subscribe(ctx, events.Filter{
		Topics: []events.Topic{events.TopicDocumentStatusChanged},
	}, 16)
	defer unsubscribe()

	scanner, err := recovery.NewScanner(dao,
		recovery.WithPublisher(bus),
		recovery.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	t.Log("Running recovery pass...")
	report, err := scanner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Recovered)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Total)

	t.Log("Verifying settled statuses...")
	got, err := dao.GetByID(ctx, complete.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentStatusReady, got.Status)
	assert.Empty(t, got.ErrorMessage)

	got, err = dao.GetByID(ctx, interrupted.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentStatusFailed, got.Status)
	assert.Equal(t, "interrupted during extracting", got.ErrorMessage)

	got, err = dao.GetByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentStatusReady, got.Status, "terminal document must not be touched")

	t.Log("Verifying published status events...")
	collected := make(map[types.ID]events.StatusChangeEvent, 2)
	deadline := time.After(2 * time.Second)
	for len(collected) < 2 {
		select {
		case ev := <-eventCh:
			payload, ok := ev.Payload.(events.StatusChangeEvent)
			require.True(t, ok, "unexpected payload type %T", ev.Payload)
			collected[payload.DocumentID] = payload
		case <-deadline:
			t.Fatalf("timed out waiting for status events, got %d", len(collected))
		}
	}
	assert.Equal(t, types.DocumentStatusReady, collected[complete.ID].NewStatus)
	assert.Equal(t, types.DocumentStatusFailed, collected[interrupted.ID].NewStatus)
	for _, payload := range collected {
		assert.Equal(t, events.SourceRecovery, payload.Source)
	}

	t.Log("Verifying second pass is a no-op...")
	report, err = scanner.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
}

// TestHTTPAPI_FullLifecycle exercises the HTTP surface end to end over a real
// sqlite store and a stubbed graph store:
// 1. Create a document through the API
// 2. Fetch it back
// 3. Recover it through the admin endpoint
// 4. Read the stats snapshot
// 5. Route structured and unstructured queries
// 6. Check component health
func TestHTTPAPI_FullLifecycle(t *testing.T) {
	db, dao := initAmberHome(t)
	logger := quietLogger()

	stub := &stubGraphClient{records: []map[string]any{{"count": int64(2)}}}

	detector := structured.NewDetector(structured.DefaultDetectorConfig(), nil, logger)
	executor, err := structured.NewExecutor(stub, nil, logger)
	require.NoError(t, err)
	router := structured.NewRouter(detector, executor, logger, nil)

	stats, err := maintenance.NewStatsCollector(dao, nil, logger)
	require.NoError(t, err)

	scanner, err := recovery.NewScanner(dao, recovery.WithLogger(logger))
	require.NoError(t, err)

	srv, err := server.NewServer(server.DefaultConfig(), server.Deps{
		Router:    router,
		Documents: dao,
		Stats:     stats,
		Recovery:  scanner,
		Health: map[string]server.HealthProbe{
			"database": server.DatabaseHealthProbe(db),
			"graph":    stub.Health,
		},
	}, server.WithLogger(logger))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tenantID := types.NewID().String()

	t.Log("Creating a document through the API...")
	var doc types.DocumentRecord
	res := postJSON(t, ts.URL+"/api/v1/documents", map[string]string{
		"tenant_id": tenantID,
		"filename":  "quarterly-report.pdf",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	decodeJSON(t, res, &doc)
	assert.Equal(t, types.DocumentStatusExtracting, doc.Status)
	require.NoError(t, doc.ID.Validate())

	t.Log("Fetching the document...")
	res = getJSON(t, ts.URL+"/api/v1/documents/"+doc.ID.String())
	require.Equal(t, http.StatusOK, res.StatusCode)
	var fetched types.DocumentRecord
	decodeJSON(t, res, &fetched)
	assert.Equal(t, doc.ID, fetched.ID)

	res = getJSON(t, ts.URL+"/api/v1/documents/"+types.NewID().String())
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	t.Log("Running an on-demand recovery pass...")
	var report recovery.Report
	res = postJSON(t, ts.URL+"/api/v1/admin/recover", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJSON(t, res, &report)
	assert.Equal(t, recovery.Report{Recovered: 0, Failed: 1, Total: 1}, report)

	res = getJSON(t, ts.URL+"/api/v1/documents/"+doc.ID.String())
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJSON(t, res, &fetched)
	assert.Equal(t, types.DocumentStatusFailed, fetched.Status)
	assert.Equal(t, "interrupted during extracting", fetched.ErrorMessage)

	t.Log("Reading the stats snapshot...")
	var snapshot types.DatabaseStats
	res = getJSON(t, ts.URL+"/api/v1/admin/stats")
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJSON(t, res, &snapshot)
	assert.Equal(t, int64(1), snapshot.TotalDocuments)
	assert.Equal(t, int64(1), snapshot.Documents[types.DocumentStatusFailed])
	assert.Equal(t, int64(-1), snapshot.Entities, "no graph store configured")
	assert.Equal(t, int64(-1), snapshot.Relationships)

	t.Log("Routing a structured query...")
	var answer structured.Answer
	res = postJSON(t, ts.URL+"/api/v1/query", map[string]string{
		"query":     "how many documents do we have",
		"tenant_id": tenantID,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJSON(t, res, &answer)
	assert.Equal(t, structured.AnswerTypeStructured, answer.Type)
	assert.Equal(t, structured.QueryTypeCountDocuments, answer.QueryType)
	assert.Equal(t, int64(2), answer.Count)

	t.Log("Routing an unstructured query...")
	var routed map[string]string
	res = postJSON(t, ts.URL+"/api/v1/query", map[string]string{
		"query":     "summarize the contract obligations for acme corp",
		"tenant_id": tenantID,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJSON(t, res, &routed)
	assert.Equal(t, "unstructured", routed["type"])
	assert.Equal(t, "general", routed["routed"])

	t.Log("Checking component health...")
	res = getJSON(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	assert.Contains(t, string(body), "healthy")
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	res, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return res
}

func getJSON(t *testing.T, url string) *http.Response {
	t.Helper()

	res, err := http.Get(url)
	require.NoError(t, err)
	return res
}

func decodeJSON(t *testing.T, res *http.Response, into any) {
	t.Helper()

	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(into))
}

package graph

import (
	"context"
	"sync"

	"github.com/danve93/Amber-sub001/internal/types"
)

// MockCall is one recorded invocation on MockGraphClient. Args holds the
// cypher text and parameter map for Query calls and is empty otherwise.
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockGraphClient is an in-memory GraphClient for tests. Query responses are
// served from a FIFO queue and every invocation is recorded for assertions.
type MockGraphClient struct {
	mu sync.RWMutex

	connected    bool
	healthStatus types.HealthStatus
	calls        []MockCall

	queryQueue []*QueryResult
	queryErr   error
}

// NewMockGraphClient returns a mock that starts connected and healthy, so
// tests can issue queries without an explicit Connect.
func NewMockGraphClient() *MockGraphClient {
	m := &MockGraphClient{}
	m.Reset()
	return m
}

// record appends a call entry. Callers must hold m.mu.
func (m *MockGraphClient) record(method string, args ...interface{}) {
	m.calls = append(m.calls, MockCall{Method: method, Args: args})
}

// Connect marks the mock connected.
func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Connect")
	m.connected = true
	return nil
}

// Close marks the mock disconnected.
func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Close")
	m.connected = false
	return nil
}

// Health returns the configured status, or unhealthy when disconnected.
func (m *MockGraphClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Health")
	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return m.healthStatus
}

// Query pops the next queued result. An exhausted queue yields an empty
// result set, matching a real query with zero matches.
func (m *MockGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (*QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Query", cypher, params)

	switch {
	case !m.connected:
		return nil, types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	case m.queryErr != nil:
		return nil, m.queryErr
	case len(m.queryQueue) > 0:
		next := m.queryQueue[0]
		m.queryQueue = m.queryQueue[1:]
		return next, nil
	default:
		return &QueryResult{Records: []map[string]any{}, Columns: []string{}}, nil
	}
}

// SetQueryResults replaces the queued Query responses.
func (m *MockGraphClient) SetQueryResults(results []*QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryQueue = results
}

// AddQueryResult appends one response to the queue.
func (m *MockGraphClient) AddQueryResult(result *QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryQueue = append(m.queryQueue, result)
}

// SetHealthStatus overrides what Health reports while connected.
func (m *MockGraphClient) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// SetQueryError makes every Query fail with err until Reset.
func (m *MockGraphClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

// SetConnected forces the connection state without recording a call.
func (m *MockGraphClient) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// GetCallsByMethod returns the recorded calls to one method, in order.
func (m *MockGraphClient) GetCallsByMethod(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// CallCount returns how many calls the mock has seen across all methods.
func (m *MockGraphClient) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// IsConnected reports the simulated connection state.
func (m *MockGraphClient) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Reset restores the initial state: connected, healthy, nothing queued and
// nothing recorded.
func (m *MockGraphClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	m.healthStatus = types.Healthy("mock graph client")
	m.calls = nil
	m.queryQueue = nil
	m.queryErr = nil
}

var _ GraphClient = (*MockGraphClient)(nil)

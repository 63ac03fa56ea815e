package llm

import (
	"context"
	"sync"
)

// MockClassifier implements Classifier for testing with configurable
// responses and call recording.
type MockClassifier struct {
	mu         sync.Mutex
	token      string
	confidence float64
	err        error
	delay      func(ctx context.Context) error
	queries    []string
}

// NewMockClassifier creates a classifier that always answers with the given
// token and confidence.
func NewMockClassifier(token string, confidence float64) *MockClassifier {
	return &MockClassifier{
		token:      token,
		confidence: confidence,
	}
}

// SetResponse changes the configured answer.
func (m *MockClassifier) SetResponse(token string, confidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.confidence = confidence
}

// SetError configures Classify to fail.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay installs a hook invoked before answering, typically used to block
// until the caller's context expires.
func (m *MockClassifier) SetDelay(delay func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// Classify records the query and returns the configured response.
func (m *MockClassifier) Classify(ctx context.Context, query string) (string, float64, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	token, confidence, err, delay := m.token, m.confidence, m.err, m.delay
	m.mu.Unlock()

	if delay != nil {
		if derr := delay(ctx); derr != nil {
			return "", 0, derr
		}
	}
	if err != nil {
		return "", 0, err
	}
	return token, confidence, nil
}

// Queries returns the recorded queries.
func (m *MockClassifier) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}

// CallCount returns how many times Classify was invoked.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Ensure MockClassifier implements Classifier at compile time.
var _ Classifier = (*MockClassifier)(nil)

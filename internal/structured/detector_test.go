package structured

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/danve93/Amber-sub001/internal/llm"
)

func newTestDetector(classifier llm.Classifier) *Detector {
	return NewDetector(DefaultDetectorConfig(), classifier, slog.Default())
}

func TestDetector_PatternMatching(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantType    QueryType
		wantFilters map[string]string
		wantLimit   int
	}{
		{
			name:        "list documents",
			query:       "List all documents",
			wantType:    QueryTypeListDocuments,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "show me the documents",
			query:       "show me the documents",
			wantType:    QueryTypeListDocuments,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "what documents variant",
			query:       "What documents do we have?",
			wantType:    QueryTypeListDocuments,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "filename filter",
			query:       "list documents named Quarterly-Report.pdf",
			wantType:    QueryTypeListDocuments,
			wantFilters: map[string]string{FilterFilename: "quarterly-report.pdf"},
			wantLimit:   50,
		},
		{
			name:        "count documents",
			query:       "How many documents do we have?",
			wantType:    QueryTypeCountDocuments,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "count via number of",
			query:       "number of files",
			wantType:    QueryTypeCountDocuments,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "count entities interrogative",
			query:       "how many entities are there?",
			wantType:    QueryTypeCountEntities,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "count typed entities",
			query:       "how many payment entities exist",
			wantType:    QueryTypeCountEntities,
			wantFilters: map[string]string{FilterEntityType: "payment"},
			wantLimit:   50,
		},
		{
			name:        "list entities",
			query:       "get all entities",
			wantType:    QueryTypeListEntities,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "entity type prefix",
			query:       "list payment entities",
			wantType:    QueryTypeListEntities,
			wantFilters: map[string]string{FilterEntityType: "payment"},
			wantLimit:   50,
		},
		{
			name:        "entity type suffix",
			query:       "show me entities of type person",
			wantType:    QueryTypeListEntities,
			wantFilters: map[string]string{FilterEntityType: "person"},
			wantLimit:   50,
		},
		{
			name:        "list relationships",
			query:       "list relationships",
			wantType:    QueryTypeListRelationships,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:        "connections in the graph",
			query:       "show me connections in the graph",
			wantType:    QueryTypeListRelationships,
			wantFilters: map[string]string{},
			wantLimit:   50,
		},
		{
			name:      "no match without fallback",
			query:     "What is the capital of France?",
			wantType:  QueryTypeNotStructured,
			wantLimit: 0,
		},
		{
			name:      "empty query",
			query:     "",
			wantType:  QueryTypeNotStructured,
			wantLimit: 0,
		},
		{
			name:      "whitespace only",
			query:     "   \t\n",
			wantType:  QueryTypeNotStructured,
			wantLimit: 0,
		},
	}

	detector := newTestDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := detector.Detect(context.Background(), tt.query)
			assert.Equal(t, tt.wantType, intent.Type)
			assert.Equal(t, tt.wantLimit, intent.Limit)
			if tt.wantFilters != nil {
				assert.Equal(t, tt.wantFilters, intent.Filters)
			}
		})
	}
}

func TestDetector_Deterministic(t *testing.T) {
	detector := newTestDetector(nil)

	first := detector.Detect(context.Background(), "list documents limit 7")
	for i := 0; i < 3; i++ {
		again := detector.Detect(context.Background(), "list documents limit 7")
		assert.Equal(t, first, again)
	}
}

func TestDetector_LimitExtraction(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantType  QueryType
		wantLimit int
	}{
		{
			name:      "explicit limit",
			query:     "list documents limit 10",
			wantType:  QueryTypeListDocuments,
			wantLimit: 10,
		},
		{
			name:      "top variant",
			query:     "show me the top 5 entities",
			wantType:  QueryTypeListEntities,
			wantLimit: 5,
		},
		{
			name:      "first variant",
			query:     "show me the first 3 documents",
			wantType:  QueryTypeListDocuments,
			wantLimit: 3,
		},
		{
			name:      "clamped to max",
			query:     "list documents limit 9999",
			wantType:  QueryTypeListDocuments,
			wantLimit: 500,
		},
		{
			name:      "zero falls back to default",
			query:     "list documents limit 0",
			wantType:  QueryTypeListDocuments,
			wantLimit: 50,
		},
		{
			name:      "overflow clamps to max",
			query:     "list documents limit 99999999999999999999",
			wantType:  QueryTypeListDocuments,
			wantLimit: 500,
		},
	}

	detector := newTestDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := detector.Detect(context.Background(), tt.query)
			require.Equal(t, tt.wantType, intent.Type)
			assert.Equal(t, tt.wantLimit, intent.Limit)
		})
	}
}

func TestDetector_FallbackAccepted(t *testing.T) {
	classifier := llm.NewMockClassifier("count_documents", 0.9)
	detector := newTestDetector(classifier)

	intent := detector.Detect(context.Background(), "whats our doc situation")

	assert.Equal(t, QueryTypeCountDocuments, intent.Type)
	assert.Equal(t, 50, intent.Limit)
	assert.Equal(t, 1, classifier.CallCount())
}

func TestDetector_FallbackNotStructured(t *testing.T) {
	classifier := llm.NewMockClassifier(llm.TokenNotStructured, 0.95)
	detector := newTestDetector(classifier)

	intent := detector.Detect(context.Background(), "What is the capital of France?")

	assert.Equal(t, QueryTypeNotStructured, intent.Type)
	assert.Equal(t, 1, classifier.CallCount())
}

func TestDetector_FallbackLowConfidence(t *testing.T) {
	classifier := llm.NewMockClassifier("count_documents", 0.3)
	detector := newTestDetector(classifier)

	intent := detector.Detect(context.Background(), "whats our doc situation")

	assert.Equal(t, QueryTypeNotStructured, intent.Type)
}

func TestDetector_FallbackErrorFailsOpen(t *testing.T) {
	classifier := llm.NewMockClassifier("count_documents", 0.9)
	classifier.SetError(assert.AnError)
	detector := newTestDetector(classifier)

	intent := detector.Detect(context.Background(), "whats our doc situation")

	assert.Equal(t, QueryTypeNotStructured, intent.Type)
}

func TestDetector_FallbackTimeoutFailsOpen(t *testing.T) {
	classifier := llm.NewMockClassifier("count_documents", 0.9)
	classifier.SetDelay(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cfg := DefaultDetectorConfig()
	cfg.FallbackTimeout = 10 * time.Millisecond
	detector := NewDetector(cfg, classifier, slog.Default())

	start := time.Now()
	intent := detector.Detect(context.Background(), "whats our doc situation")

	assert.Equal(t, QueryTypeNotStructured, intent.Type)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDetector_FallbackRateLimited(t *testing.T) {
	classifier := llm.NewMockClassifier("count_documents", 0.9)
	detector := newTestDetector(classifier)
	detector.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	first := detector.Detect(context.Background(), "whats our doc situation")
	second := detector.Detect(context.Background(), "whats our doc situation")

	assert.Equal(t, QueryTypeCountDocuments, first.Type)
	assert.Equal(t, QueryTypeNotStructured, second.Type)
	assert.Equal(t, 1, classifier.CallCount())
}

func TestDetector_FallbackDisabled(t *testing.T) {
	classifier := llm.NewMockClassifier("count_documents", 0.9)

	cfg := DefaultDetectorConfig()
	cfg.FallbackEnabled = false
	detector := NewDetector(cfg, classifier, slog.Default())

	intent := detector.Detect(context.Background(), "whats our doc situation")

	assert.Equal(t, QueryTypeNotStructured, intent.Type)
	assert.Equal(t, 0, classifier.CallCount())
}

func TestDetector_AmbiguityGate(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		wantType      QueryType
		wantConsulted bool
	}{
		{
			name:     "matched query skips fallback",
			query:    "list documents",
			wantType: QueryTypeListDocuments,
		},
		{
			name: "long unrelated prose skips fallback",
			query: "please summarize the latest research on retrieval augmented " +
				"generation methods published this year",
			wantType: QueryTypeNotStructured,
		},
		{
			name: "domain noun triggers fallback",
			query: "tell me absolutely everything currently stored about " +
				"the uploaded documents in this system",
			wantType:      QueryTypeNotStructured,
			wantConsulted: true,
		},
		{
			name:          "interrogative start triggers fallback",
			query:         "where did all of our quarterly planning material end up after the migration",
			wantType:      QueryTypeNotStructured,
			wantConsulted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := llm.NewMockClassifier(llm.TokenNotStructured, 1.0)
			detector := newTestDetector(classifier)

			intent := detector.Detect(context.Background(), tt.query)

			assert.Equal(t, tt.wantType, intent.Type)
			wantCalls := 0
			if tt.wantConsulted {
				wantCalls = 1
			}
			assert.Equal(t, wantCalls, classifier.CallCount())
		})
	}
}

func TestNewDetector_Defaults(t *testing.T) {
	detector := NewDetector(DetectorConfig{}, nil, nil)

	intent := detector.Detect(context.Background(), "list documents")
	assert.Equal(t, QueryTypeListDocuments, intent.Type)
	assert.Equal(t, 50, intent.Limit)

	intent = detector.Detect(context.Background(), "list documents limit 9999")
	assert.Equal(t, 500, intent.Limit)
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  List ALL Documents?  ", "list all documents"},
		{"count docs!!!", "count docs"},
		{"a\t\tb   c", "a b c"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeQuery(tt.in))
	}
}

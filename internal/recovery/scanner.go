package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danve93/Amber-sub001/internal/database"
	"github.com/danve93/Amber-sub001/internal/events"
	"github.com/danve93/Amber-sub001/internal/observability"
	"github.com/danve93/Amber-sub001/internal/types"
)

// StatusStore is the slice of the document store the scanner needs: listing
// candidates, checking chunk evidence, and committing conditional transitions.
// CompareAndSetStatus must return (false, nil) when the expected status no
// longer matches; the store is the serialization point between concurrent
// writers, not the scanner.
type StatusStore interface {
	ListByStatus(ctx context.Context, statuses ...types.DocumentStatus) ([]*types.DocumentRecord, error)
	HasChunks(ctx context.Context, documentID types.ID) (bool, error)
	CompareAndSetStatus(ctx context.Context, id types.ID, expected, next types.DocumentStatus, errorMessage string) (bool, error)
}

// The full DAO must keep satisfying the scanner's view of it.
var _ StatusStore = (database.DocumentDAO)(nil)

// Report summarizes one recovery pass. Total is always Recovered+Failed;
// documents skipped because another writer transitioned them first are
// excluded from all three counters.
type Report struct {
	Recovered int `json:"recovered"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// DefaultParallelism bounds concurrent per-document work when no explicit
// parallelism is configured.
const DefaultParallelism = 4

// Scanner finds documents stranded in an in-flight status by an unclean
// shutdown and settles each one into a terminal status. Every transition is
// an optimistic compare-and-set against the status the document had when it
// was enumerated, so concurrent scanners and a live pipeline can race the
// scanner without corrupting state: exactly one writer wins, the rest skip.
type Scanner struct {
	store     StatusStore
	publisher events.Publisher
	logger    *slog.Logger
	metrics   observability.MetricsRecorder

	parallelism int
	deadline    time.Duration
	statuses    []types.DocumentStatus
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPublisher sets the event publisher for status change notifications.
// Default: no-op publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(s *Scanner) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithLogger sets the logger.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: no-op recorder.
func WithMetrics(recorder observability.MetricsRecorder) Option {
	return func(s *Scanner) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithParallelism bounds how many documents are settled concurrently.
// Default: DefaultParallelism.
func WithParallelism(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithDeadline bounds the wall-clock time of a pass. Once the deadline
// passes no new per-document work is initiated; transitions already in
// flight complete and the pass returns partial counts without error.
// Default: no deadline.
func WithDeadline(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// WithStaleStatuses overrides which statuses are treated as stale.
// Default: every non-terminal status.
func WithStaleStatuses(statuses ...types.DocumentStatus) Option {
	return func(s *Scanner) {
		if len(statuses) > 0 {
			s.statuses = statuses
		}
	}
}

// NewScanner creates a recovery scanner over the given document store.
func NewScanner(store StatusStore, opts ...Option) (*Scanner, error) {
	if store == nil {
		return nil, types.NewError(ErrCodeEnumerationFailure, "document store is required")
	}

	s := &Scanner{
		store:       store,
		publisher:   events.NewNopPublisher(),
		logger:      slog.Default(),
		metrics:     observability.NewNoOpMetricsRecorder(),
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes one recovery pass and reports how many documents it settled.
//
// A non-nil error means the candidate enumeration itself failed and nothing
// was attempted. Per-document failures never abort the pass: they are logged,
// counted in no bucket, and the remaining candidates are still processed.
// Run is idempotent; a second pass over a store the first pass settled
// returns a zero Report.
func (s *Scanner) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	statuses := s.statuses
	if len(statuses) == 0 {
		statuses = types.ActiveStatuses()
	}

	docs, err := s.store.ListByStatus(ctx, statuses...)
	if err != nil {
		s.metrics.RecordCounter(observability.MetricRecoveryRuns, 1, map[string]string{"outcome": "enumeration_failed"})
		return Report{}, types.WrapError(ErrCodeEnumerationFailure, "listing stale documents", err)
	}

	if len(docs) == 0 {
		s.logger.DebugContext(ctx, "recovery pass found no stale documents")
		s.metrics.RecordCounter(observability.MetricRecoveryRuns, 1, map[string]string{"outcome": "clean"})
		return Report{}, nil
	}

	s.logger.InfoContext(ctx, "recovery pass started",
		"candidates", len(docs),
		"parallelism", s.parallelism,
	)

	var cutoff time.Time
	if s.deadline > 0 {
		cutoff = start.Add(s.deadline)
	}

	var recovered, failed atomic.Int64
	group := new(errgroup.Group)
	group.SetLimit(s.parallelism)

	truncated := false
	for _, doc := range docs {
		if ctx.Err() != nil {
			truncated = true
			break
		}
		// Checked before each document so a pass over a large backlog
		// stops initiating work once the budget is spent. Work already
		// handed to the group runs to completion.
		if !cutoff.IsZero() && time.Now().After(cutoff) {
			truncated = true
			break
		}

		doc := doc
		group.Go(func() error {
			switch s.settle(ctx, doc) {
			case settledRecovered:
				recovered.Add(1)
			case settledFailed:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = group.Wait()

	if truncated {
		s.logger.WarnContext(ctx, "recovery pass stopped before exhausting candidates",
			"deadline", s.deadline,
			"elapsed", time.Since(start),
		)
	}

	report := Report{
		Recovered: int(recovered.Load()),
		Failed:    int(failed.Load()),
	}
	report.Total = report.Recovered + report.Failed

	s.metrics.RecordCounter(observability.MetricRecoveryRuns, 1, map[string]string{"outcome": runOutcome(truncated)})
	s.metrics.RecordCounter(observability.MetricRecoveryRecovered, int64(report.Recovered), nil)
	s.metrics.RecordCounter(observability.MetricRecoveryFailed, int64(report.Failed), nil)
	s.metrics.RecordHistogram(observability.MetricRecoveryDuration, float64(time.Since(start).Milliseconds()), nil)

	s.logger.InfoContext(ctx, "recovery pass finished",
		"recovered", report.Recovered,
		"failed", report.Failed,
		"total", report.Total,
		"duration", time.Since(start),
	)
	return report, nil
}

func runOutcome(truncated bool) string {
	if truncated {
		return "truncated"
	}
	return "completed"
}

type settleOutcome int

const (
	settledRecovered settleOutcome = iota
	settledFailed
	settledSkipped
	settledError
)

// settle decides and commits the terminal status for one stale document.
// Only a document interrupted during chunking that already has chunks
// persisted is considered complete; everything else failed mid-pipeline.
func (s *Scanner) settle(ctx context.Context, doc *types.DocumentRecord) settleOutcome {
	if doc.Status.IsTerminal() {
		// Terminal documents are never touched, even if a status
		// override listed their status as stale.
		s.logger.WarnContext(ctx, "recovery candidate already terminal, skipping",
			"document_id", doc.ID,
			"status", doc.Status,
		)
		return settledSkipped
	}

	next := types.DocumentStatusFailed
	errorMessage := fmt.Sprintf("interrupted during %s", doc.Status)

	if doc.Status == types.DocumentStatusChunking {
		hasChunks, err := s.store.HasChunks(ctx, doc.ID)
		if err != nil {
			s.itemFailure(ctx, doc, "checking chunk evidence", err)
			return settledError
		}
		if hasChunks {
			next = types.DocumentStatusReady
			errorMessage = ""
		}
	}

	committed, err := s.store.CompareAndSetStatus(ctx, doc.ID, doc.Status, next, errorMessage)
	if err != nil {
		s.itemFailure(ctx, doc, "committing status transition", err)
		return settledError
	}
	if !committed {
		// Another writer moved the document first. Not an error and
		// not counted; whoever won owns the document now.
		s.logger.DebugContext(ctx, "recovery transition lost the race, skipping",
			"document_id", doc.ID,
			"expected_status", doc.Status,
		)
		s.metrics.RecordCounter(observability.MetricRecoverySkipped, 1, map[string]string{"reason": "conflict"})
		return settledSkipped
	}

	s.publishStatusChange(ctx, doc, next, errorMessage)

	if next == types.DocumentStatusReady {
		s.logger.InfoContext(ctx, "document recovered",
			"document_id", doc.ID,
			"previous_status", doc.Status,
		)
		return settledRecovered
	}
	s.logger.InfoContext(ctx, "document marked failed",
		"document_id", doc.ID,
		"previous_status", doc.Status,
		"reason", errorMessage,
	)
	return settledFailed
}

func (s *Scanner) itemFailure(ctx context.Context, doc *types.DocumentRecord, action string, cause error) {
	err := types.WrapError(ErrCodeRecoveryItemFailure, action, cause)
	s.logger.ErrorContext(ctx, "recovery item failed",
		"document_id", doc.ID,
		"status", doc.Status,
		"error", err,
	)
	s.metrics.RecordCounter(observability.MetricRecoverySkipped, 1, map[string]string{"reason": "item_error"})
}

// publishStatusChange notifies subscribers about a committed transition.
// Publishing is fire-and-forget: a failed publish is logged and never rolls
// back the transition, so consumers must tolerate replays and gaps.
func (s *Scanner) publishStatusChange(ctx context.Context, doc *types.DocumentRecord, next types.DocumentStatus, errorMessage string) {
	event := events.StatusChangeEvent{
		DocumentID:     doc.ID,
		TenantID:       doc.TenantID.String(),
		PreviousStatus: doc.Status,
		NewStatus:      next,
		ErrorMessage:   errorMessage,
		Source:         events.SourceRecovery,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.TopicDocumentStatusChanged, event); err != nil {
		s.logger.WarnContext(ctx, "status change event publish failed",
			"document_id", doc.ID,
			"new_status", next,
			"error", err,
		)
	}
}

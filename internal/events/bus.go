package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/danve93/Amber-sub001/internal/observability"
)

// ErrBusClosed is returned by Publish and PublishEvent after Close.
var ErrBusClosed = errors.New("event bus closed")

// EventBus extends Publisher with filtered in-process subscriptions.
//
// A single bus serves the whole daemon. Producers publish without knowing
// who listens; subscribers attach with a Filter and receive matching
// envelopes on a buffered channel. Publishing never blocks on a subscriber.
type EventBus interface {
	// Publisher is satisfied so the bus can stand in wherever an external
	// publisher is expected (config provider "bus").
	Publisher

	// PublishEvent delivers a pre-built envelope to every subscriber whose
	// filter matches it. Fails only when the bus is closed or the caller's
	// context is done.
	PublishEvent(ctx context.Context, event Event) error

	// Subscribe registers a subscriber and returns its receive channel plus
	// a cleanup function that must be called to release the subscription.
	// bufferSize <= 0 uses the bus default.
	Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func())
}

// ErrorHandler is invoked for delivery problems, currently only dropped
// events. The fields map carries the subscriber and event identifiers.
type ErrorHandler func(err error, fields map[string]interface{})

// DefaultEventBus is the channel-backed EventBus used in-process.
//
// Each subscriber owns a buffered channel. Delivery runs on the publisher's
// goroutine under a read lock, so a subscription cannot be torn down
// mid-send. When a buffer is full the event is dropped for that subscriber
// only, and the drop is surfaced through the error handler and the metrics
// recorder.
type DefaultEventBus struct {
	bufferSize int
	onError    ErrorHandler
	metrics    observability.MetricsRecorder

	nextID atomic.Uint64

	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	closed bool
}

type subscriber struct {
	ch     chan Event
	filter Filter
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a DefaultEventBus.
type Option func(*DefaultEventBus)

// WithDefaultBufferSize sets the channel capacity used when Subscribe is
// called with bufferSize <= 0. The initial default is 100.
func WithDefaultBufferSize(size int) Option {
	return func(eb *DefaultEventBus) {
		if size > 0 {
			eb.bufferSize = size
		}
	}
}

// WithErrorHandler routes delivery errors, such as drops for slow
// subscribers, to the given handler instead of discarding them.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(eb *DefaultEventBus) {
		if handler != nil {
			eb.onError = handler
		}
	}
}

// WithMetrics records publish and drop counts on the given recorder.
func WithMetrics(recorder observability.MetricsRecorder) Option {
	return func(eb *DefaultEventBus) {
		if recorder != nil {
			eb.metrics = recorder
		}
	}
}

// NewEventBus creates an in-process bus. With no options it buffers 100
// events per subscriber and discards errors and metrics.
func NewEventBus(opts ...Option) *DefaultEventBus {
	eb := &DefaultEventBus{
		bufferSize: 100,
		onError:    func(error, map[string]interface{}) {},
		metrics:    observability.NewNoOpMetricsRecorder(),
		subs:       make(map[uint64]*subscriber),
	}
	for _, opt := range opts {
		opt(eb)
	}
	return eb
}

// Publish implements Publisher by wrapping the payload in an envelope and
// fanning it out. See envelope for what the wrapper carries.
func (eb *DefaultEventBus) Publish(ctx context.Context, topic Topic, payload any) error {
	return eb.PublishEvent(ctx, envelope(ctx, topic, payload))
}

// envelope wraps a raw payload for delivery. Document and tenant identifiers
// are lifted from known payload types, and trace correlation identifiers from
// the active span, so subscribers can filter and correlate without type
// asserting the payload.
func envelope(ctx context.Context, topic Topic, payload any) Event {
	ev := Event{
		Topic:     topic,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	switch p := payload.(type) {
	case StatusChangeEvent:
		ev.DocumentID = p.DocumentID
		ev.TenantID = p.TenantID
	case *StatusChangeEvent:
		ev.DocumentID = p.DocumentID
		ev.TenantID = p.TenantID
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		ev.TraceID = sc.TraceID().String()
		ev.SpanID = sc.SpanID().String()
	}

	return ev
}

// PublishEvent fans an envelope out to every matching subscriber without
// blocking. A subscriber whose buffer is full loses this event while the
// rest still receive it.
func (eb *DefaultEventBus) PublishEvent(ctx context.Context, event Event) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return ErrBusClosed
	}

	delivered := 0
	for id, sub := range eb.subs {
		if sub.ctx.Err() != nil || !sub.filter.Matches(event) {
			continue
		}

		select {
		case sub.ch <- event:
			delivered++
		case <-ctx.Done():
			return ctx.Err()
		default:
			eb.dropEvent(id, event)
		}
	}

	if delivered > 0 {
		eb.metrics.RecordCounter(observability.MetricEventsPublished, int64(delivered),
			map[string]string{"topic": string(event.Topic)})
	}
	return nil
}

// dropEvent reports an envelope lost to a full subscriber buffer.
func (eb *DefaultEventBus) dropEvent(id uint64, event Event) {
	eb.metrics.RecordCounter(observability.MetricEventsDropped, 1,
		map[string]string{"topic": string(event.Topic)})
	eb.onError(
		fmt.Errorf("subscriber %d buffer full, event dropped", id),
		map[string]interface{}{
			"subscriber_id": strconv.FormatUint(id, 10),
			"topic":         event.Topic,
			"document_id":   event.DocumentID,
			"tenant_id":     event.TenantID,
		},
	)
}

// Subscribe registers a subscriber and returns its receive channel together
// with a cleanup function. The channel is closed by cleanup or by Close.
// Cancelling ctx stops delivery but cleanup must still run to release the
// subscription. Cleanup is idempotent.
func (eb *DefaultEventBus) Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func()) {
	if bufferSize <= 0 {
		bufferSize = eb.bufferSize
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		ch:     make(chan Event, bufferSize),
		filter: filter,
		ctx:    subCtx,
		cancel: cancel,
	}
	id := eb.nextID.Add(1)

	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		cancel()
		close(sub.ch)
		return sub.ch, func() {}
	}
	eb.subs[id] = sub
	eb.mu.Unlock()

	return sub.ch, func() { eb.remove(id) }
}

// remove releases one subscription and closes its channel. No-op when the
// subscription is already gone, which makes cleanup functions idempotent.
func (eb *DefaultEventBus) remove(id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub, ok := eb.subs[id]
	if !ok {
		return
	}
	delete(eb.subs, id)
	sub.cancel()
	close(sub.ch)
}

// Close shuts the bus down: every subscriber channel is closed, the
// subscription table is cleared, and later publishes return ErrBusClosed.
// Close is idempotent.
func (eb *DefaultEventBus) Close() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return nil
	}
	eb.closed = true

	for id, sub := range eb.subs {
		sub.cancel()
		close(sub.ch)
		delete(eb.subs, id)
	}
	return nil
}

// SubscriberCount reports the number of live subscriptions.
func (eb *DefaultEventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}

var _ EventBus = (*DefaultEventBus)(nil)

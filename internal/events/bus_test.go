package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danve93/Amber-sub001/internal/types"
)

// waitEvent blocks until an event arrives or fails the test after a second.
func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

// expectNone asserts that nothing else arrives within a short window.
func expectNone(t *testing.T, events <-chan Event) {
	t.Helper()
	select {
	case ev := <-events:
		t.Errorf("unexpected event: topic=%v tenant=%v", ev.Topic, ev.TenantID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBus_BasicPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	events, cleanup := bus.Subscribe(context.Background(), Filter{}, 10)
	defer cleanup()

	sent := Event{
		Topic:      TopicDocumentStatusChanged,
		Timestamp:  time.Now(),
		DocumentID: types.NewID(),
		TenantID:   "tenant-a",
	}
	if err := bus.PublishEvent(context.Background(), sent); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}

	got := waitEvent(t, events)
	if got.Topic != sent.Topic {
		t.Errorf("topic = %v, want %v", got.Topic, sent.Topic)
	}
	if got.DocumentID != sent.DocumentID {
		t.Errorf("document ID = %v, want %v", got.DocumentID, sent.DocumentID)
	}
}

// The Publisher-style Publish lifts correlation IDs from a StatusChangeEvent
// payload onto the envelope so subscribers can filter without type-asserting.
func TestEventBus_PublishWrapsPayload(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	events, cleanup := bus.Subscribe(context.Background(), Filter{}, 10)
	defer cleanup()

	docID := types.NewID()
	payload := StatusChangeEvent{
		DocumentID:     docID,
		TenantID:       "tenant-a",
		PreviousStatus: types.DocumentStatusChunking,
		NewStatus:      types.DocumentStatusReady,
		Source:         SourceRecovery,
		OccurredAt:     time.Now(),
	}
	if err := bus.Publish(context.Background(), TopicDocumentStatusChanged, payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got := waitEvent(t, events)
	if got.Topic != TopicDocumentStatusChanged {
		t.Errorf("topic = %v, want %v", got.Topic, TopicDocumentStatusChanged)
	}
	if got.DocumentID != docID {
		t.Errorf("envelope document ID = %v, want %v", got.DocumentID, docID)
	}
	if got.TenantID != "tenant-a" {
		t.Errorf("envelope tenant ID = %v, want tenant-a", got.TenantID)
	}
	change, ok := got.Payload.(StatusChangeEvent)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChangeEvent", got.Payload)
	}
	if change.NewStatus != types.DocumentStatusReady {
		t.Errorf("new status = %v, want ready", change.NewStatus)
	}
}

func TestEventBus_FilterByTopic(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ctx := context.Background()
	events, cleanup := bus.Subscribe(ctx, Filter{Topics: []Topic{TopicDocumentStatusChanged}}, 10)
	defer cleanup()

	bus.PublishEvent(ctx, Event{Topic: TopicDocumentStatusChanged, Timestamp: time.Now(), DocumentID: types.NewID()})
	bus.PublishEvent(ctx, Event{Topic: TopicDaemonStarted, Timestamp: time.Now()})

	if got := waitEvent(t, events); got.Topic != TopicDocumentStatusChanged {
		t.Errorf("topic = %v, want %v", got.Topic, TopicDocumentStatusChanged)
	}
	expectNone(t, events)
}

func TestEventBus_FilterByTenant(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ctx := context.Background()
	events, cleanup := bus.Subscribe(ctx, Filter{TenantID: "tenant-a"}, 10)
	defer cleanup()

	bus.PublishEvent(ctx, Event{Topic: TopicDocumentStatusChanged, Timestamp: time.Now(), TenantID: "tenant-b"})
	bus.PublishEvent(ctx, Event{Topic: TopicDocumentStatusChanged, Timestamp: time.Now(), TenantID: "tenant-a"})

	if got := waitEvent(t, events); got.TenantID != "tenant-a" {
		t.Errorf("tenant ID = %v, want tenant-a", got.TenantID)
	}
	expectNone(t, events)
}

// A subscriber that stops reading must not block the publisher or starve
// other subscribers; its overflow is dropped and reported to the error
// handler instead.
func TestEventBus_SlowConsumer(t *testing.T) {
	var dropped atomic.Int64
	bus := NewEventBus(
		WithErrorHandler(func(err error, ctx map[string]interface{}) {
			dropped.Add(1)
		}),
	)
	defer bus.Close()

	ctx := context.Background()

	// Never read from this one; buffer holds a single event.
	_, slowCleanup := bus.Subscribe(ctx, Filter{}, 1)
	defer slowCleanup()

	fastEvents, fastCleanup := bus.Subscribe(ctx, Filter{}, 100)
	defer fastCleanup()

	for i := 0; i < 10; i++ {
		if err := bus.PublishEvent(ctx, Event{Topic: TopicDocumentStatusChanged, Timestamp: time.Now()}); err != nil {
			t.Fatalf("PublishEvent failed: %v", err)
		}
	}

	for i := 0; i < 10; i++ {
		waitEvent(t, fastEvents)
	}
	if dropped.Load() != 9 {
		t.Errorf("dropped = %d, want 9", dropped.Load())
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus()

	ctx := context.Background()
	events, _ := bus.Subscribe(ctx, Filter{}, 10)

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("subscriber channel still open after Close")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if err := bus.PublishEvent(ctx, Event{Topic: TopicDaemonStopped, Timestamp: time.Now()}); err == nil {
		t.Error("publish on closed bus succeeded, want error")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ctx := context.Background()
	_, cleanup1 := bus.Subscribe(ctx, Filter{}, 10)
	_, cleanup2 := bus.Subscribe(ctx, Filter{}, 10)

	if got := bus.SubscriberCount(); got != 2 {
		t.Errorf("subscriber count = %d, want 2", got)
	}

	cleanup1()
	if got := bus.SubscriberCount(); got != 1 {
		t.Errorf("subscriber count after cleanup = %d, want 1", got)
	}

	// Running the same cleanup twice must not double-remove.
	cleanup1()
	if got := bus.SubscriberCount(); got != 1 {
		t.Errorf("subscriber count after repeated cleanup = %d, want 1", got)
	}

	cleanup2()
	if got := bus.SubscriberCount(); got != 0 {
		t.Errorf("subscriber count = %d, want 0", got)
	}
}

func TestEventBus_ConcurrentPublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ctx := context.Background()

	const publishers = 4
	const perPublisher = 50
	const want = publishers * perPublisher

	events, cleanup := bus.Subscribe(ctx, Filter{}, want)
	defer cleanup()

	var total atomic.Int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
			if total.Add(1) == want {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				bus.PublishEvent(ctx, Event{
					Topic:      TopicDocumentStatusChanged,
					Timestamp:  time.Now(),
					DocumentID: types.NewID(),
				})
			}
		}()
	}
	wg.Wait()

	select {
	case <-done:
		if total.Load() != want {
			t.Errorf("received = %d, want %d", total.Load(), want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout: received %d of %d events", total.Load(), want)
	}
}

func TestFilter_Matches(t *testing.T) {
	docID := types.NewID()
	otherID := types.NewID()

	event := Event{
		Topic:      TopicDocumentStatusChanged,
		DocumentID: docID,
		TenantID:   "tenant-a",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches all", Filter{}, true},
		{"matching topic", Filter{Topics: []Topic{TopicDocumentStatusChanged}}, true},
		{"non-matching topic", Filter{Topics: []Topic{TopicDaemonStarted}}, false},
		{"topic in list", Filter{Topics: []Topic{TopicDaemonStarted, TopicDocumentStatusChanged}}, true},
		{"matching tenant", Filter{TenantID: "tenant-a"}, true},
		{"non-matching tenant", Filter{TenantID: "tenant-b"}, false},
		{"matching document", Filter{DocumentID: docID}, true},
		{"non-matching document", Filter{DocumentID: otherID}, false},
		{"all criteria match", Filter{Topics: []Topic{TopicDocumentStatusChanged}, TenantID: "tenant-a", DocumentID: docID}, true},
		{"one criterion fails", Filter{Topics: []Topic{TopicDocumentStatusChanged}, TenantID: "tenant-b", DocumentID: docID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher()

	if err := p.Publish(context.Background(), TopicDocumentStatusChanged, StatusChangeEvent{}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func BenchmarkEventBus_Publish(b *testing.B) {
	bus := NewEventBus(WithDefaultBufferSize(1000))
	defer bus.Close()

	events, cleanup := bus.Subscribe(context.Background(), Filter{}, 10000)
	defer cleanup()

	go func() {
		for range events {
		}
	}()

	event := Event{
		Topic:      TopicDocumentStatusChanged,
		Timestamp:  time.Now(),
		DocumentID: types.NewID(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.PublishEvent(context.Background(), event)
	}
}

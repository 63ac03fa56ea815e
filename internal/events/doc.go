// Package events provides status-change event publication for Amber.
//
// The package defines the Publisher interface consumed by the ingestion
// pipeline and the recovery scanner, plus three implementations: a Redis
// pub/sub publisher for external consumers, an in-process EventBus for
// same-process subscribers, and a NopPublisher for disabled configurations
// and tests.
//
// # Delivery Contract
//
// Publication is best-effort and at-least-once:
//   - A publish failure is logged by the caller and never rolls back the
//     state change that triggered the event.
//   - Duplicate notifications are possible; consumers must be idempotent.
//   - No ordering is guaranteed across documents.
//
// # Slow Consumers
//
// The in-process bus never blocks a publisher. Subscribers receive events
// on buffered channels; when a buffer is full the bus drops the event for
// that subscriber only, reports the drop through the configured
// ErrorHandler, and counts it on the metrics recorder. Other subscribers
// are unaffected.
//
// # Usage Example
//
//	bus := events.NewEventBus(
//		events.WithDefaultBufferSize(500),
//		events.WithErrorHandler(func(err error, ctx map[string]interface{}) {
//			log.Warn("event bus error", "error", err, "context", ctx)
//		}),
//	)
//	defer bus.Close()
//
//	// Subscribe to status changes for one tenant
//	ch, cleanup := bus.Subscribe(ctx, events.Filter{
//		Topics:   []events.Topic{events.TopicDocumentStatusChanged},
//		TenantID: "tenant-a",
//	}, 0)
//	defer cleanup()
//
//	// Publish a transition
//	bus.Publish(ctx, events.TopicDocumentStatusChanged, events.StatusChangeEvent{
//		DocumentID:     docID,
//		TenantID:       "tenant-a",
//		PreviousStatus: types.DocumentStatusChunking,
//		NewStatus:      types.DocumentStatusReady,
//		Source:         events.SourceRecovery,
//		OccurredAt:     time.Now(),
//	})
package events

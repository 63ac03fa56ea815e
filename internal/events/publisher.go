package events

import "context"

// Publisher is the outbound notification channel for status changes.
//
// Delivery is best-effort and at-least-once: implementations never guarantee
// ordering across documents, and callers log publish failures and continue
// rather than rolling back the state change that triggered the event.
// Consumers must therefore treat duplicate notifications as idempotent.
type Publisher interface {
	// Publish sends the payload on the given topic. No acknowledgment is
	// required; an error indicates the notification was not handed off.
	Publish(ctx context.Context, topic Topic, payload any) error

	// Close releases any resources held by the publisher.
	Close() error
}

// NopPublisher discards all events. It is used when event publication is
// disabled in configuration and as a safe default in tests.
type NopPublisher struct{}

// NewNopPublisher creates a publisher that discards all events.
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

// Publish discards the event and always succeeds.
func (p *NopPublisher) Publish(ctx context.Context, topic Topic, payload any) error {
	return nil
}

// Close is a no-op.
func (p *NopPublisher) Close() error {
	return nil
}

// Ensure NopPublisher implements Publisher at compile time.
var _ Publisher = (*NopPublisher)(nil)

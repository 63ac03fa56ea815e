package events

import (
	"time"

	"github.com/danve93/Amber-sub001/internal/types"
)

// Topic identifies the category of an event in the Amber system. Topics are
// dot-separated hierarchical names so downstream consumers can pattern-match
// on prefixes (e.g. "documents.*").
type Topic string

// Document Lifecycle Topics
// These topics track document status transitions through the ingestion
// pipeline, including transitions applied by the recovery scanner.
const (
	TopicDocumentStatusChanged Topic = "documents.status.changed"
)

// System Topics
// These topics track daemon lifecycle.
const (
	TopicDaemonStarted Topic = "system.daemon_started"
	TopicDaemonStopped Topic = "system.daemon_stopped"
)

// String returns the string representation of the topic.
func (t Topic) String() string {
	return string(t)
}

// Event is the envelope delivered to in-process subscribers. It carries the
// topic, correlation identifiers, and a topic-specific payload.
//
// The Event struct is JSON-serializable; external publishers (Redis) send
// only the payload, while the in-process bus delivers the full envelope.
type Event struct {
	// Topic identifies the category of the event
	Topic Topic `json:"topic"`

	// Timestamp records when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// DocumentID associates the event with a document (empty for system events)
	DocumentID types.ID `json:"document_id,omitempty"`

	// TenantID associates the event with a tenant (empty for system events)
	TenantID string `json:"tenant_id,omitempty"`

	// TraceID is the OpenTelemetry trace ID for distributed tracing correlation
	TraceID string `json:"trace_id,omitempty"`

	// SpanID is the OpenTelemetry span ID for the specific operation
	SpanID string `json:"span_id,omitempty"`

	// Payload contains topic-specific typed data (use type assertion to access)
	Payload any `json:"payload,omitempty"`
}

// StatusChangeEvent is the payload for documents.status.changed events.
// Consumers must treat delivery as at-least-once: duplicates and reordering
// across documents are possible, so handlers key off the document ID and the
// new status rather than event arrival order.
type StatusChangeEvent struct {
	DocumentID     types.ID             `json:"document_id"`
	TenantID       string               `json:"tenant_id"`
	PreviousStatus types.DocumentStatus `json:"previous_status"`
	NewStatus      types.DocumentStatus `json:"new_status"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	Source         string               `json:"source"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// Source values for StatusChangeEvent. They identify which component applied
// the transition.
const (
	SourcePipeline = "pipeline"
	SourceRecovery = "recovery"
)

// DaemonStartedPayload contains data for system.daemon_started events.
type DaemonStartedPayload struct {
	Version       string `json:"version"`
	ConfigPath    string `json:"config_path,omitempty"`
	ListenAddress string `json:"listen_address,omitempty"`
}

// DaemonStoppedPayload contains data for system.daemon_stopped events.
type DaemonStoppedPayload struct {
	Version string        `json:"version"`
	Uptime  time.Duration `json:"uptime,omitempty"`
}

// Filter defines criteria for filtering events in bus subscriptions.
// All filter fields use AND logic - an event must match all specified
// criteria. Zero-valued fields match everything.
type Filter struct {
	// Topics limits delivery to the listed topics (empty = all topics)
	Topics []Topic

	// TenantID limits delivery to events for a single tenant
	TenantID string

	// DocumentID limits delivery to events for a single document
	DocumentID types.ID
}

// Matches reports whether the event satisfies every criterion in the filter.
func (f Filter) Matches(event Event) bool {
	if len(f.Topics) > 0 {
		found := false
		for _, t := range f.Topics {
			if event.Topic == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.TenantID != "" && event.TenantID != f.TenantID {
		return false
	}

	if !f.DocumentID.IsZero() && event.DocumentID != f.DocumentID {
		return false
	}

	return true
}

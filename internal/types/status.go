package types

import (
	"encoding/json"
	"fmt"
)

// DocumentStatus represents the processing state of an ingested document.
//
// State machine (owned by the ingestion pipeline, consumed here):
//
//	extracting -> classifying -> chunking -> ready
//	     \            \             \
//	      +------------+-------------+--> failed
//
// extracting, classifying, and chunking are in-flight states; ready and
// failed are terminal. The recovery scanner only ever moves documents
// from an in-flight state to a terminal one.
type DocumentStatus string

const (
	DocumentStatusExtracting  DocumentStatus = "extracting"
	DocumentStatusClassifying DocumentStatus = "classifying"
	DocumentStatusChunking    DocumentStatus = "chunking"
	DocumentStatusReady       DocumentStatus = "ready"
	DocumentStatusFailed      DocumentStatus = "failed"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid checks if the DocumentStatus is a valid value
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusExtracting, DocumentStatusClassifying, DocumentStatusChunking,
		DocumentStatusReady, DocumentStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is one the recovery scanner
// must never transition a document out of.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusReady || s == DocumentStatusFailed
}

// ActiveStatuses returns the non-terminal statuses in pipeline order.
// A fresh slice is returned on every call so callers may mutate it.
func ActiveStatuses() []DocumentStatus {
	return []DocumentStatus{
		DocumentStatusExtracting,
		DocumentStatusClassifying,
		DocumentStatusChunking,
	}
}

// TerminalStatuses returns the terminal statuses.
func TerminalStatuses() []DocumentStatus {
	return []DocumentStatus{
		DocumentStatusReady,
		DocumentStatusFailed,
	}
}

// MarshalJSON implements json.Marshaler
func (s DocumentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *DocumentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := DocumentStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid document status: %s", str)
	}

	*s = status
	return nil
}

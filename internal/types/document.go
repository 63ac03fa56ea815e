package types

import (
	"fmt"
	"strings"
	"time"
)

// DocumentRecord is the status-store view of an ingested document.
// The ingestion pipeline owns creation and forward progress; the
// recovery scanner only ever updates Status and ErrorMessage.
type DocumentRecord struct {
	ID           ID             `json:"id"`
	TenantID     ID             `json:"tenant_id"`
	Filename     string         `json:"filename"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewDocumentRecord creates a DocumentRecord entering the pipeline.
// New documents always start in the extracting state.
func NewDocumentRecord(tenantID ID, filename string) *DocumentRecord {
	now := time.Now().UTC()
	return &DocumentRecord{
		ID:        NewID(),
		TenantID:  tenantID,
		Filename:  filename,
		Status:    DocumentStatusExtracting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks that the record is well-formed.
func (d *DocumentRecord) Validate() error {
	if err := d.ID.Validate(); err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	if err := d.TenantID.Validate(); err != nil {
		return fmt.Errorf("tenant id: %w", err)
	}
	if strings.TrimSpace(d.Filename) == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if !d.Status.IsValid() {
		return fmt.Errorf("invalid document status: %s", d.Status)
	}
	return nil
}

// Chunk is a persisted fragment of an extracted document. Only its
// existence matters to this core: at least one chunk for a document is
// the evidence that the chunking stage completed.
type Chunk struct {
	ID         ID        `json:"id"`
	DocumentID ID        `json:"document_id"`
	Position   int       `json:"position"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewChunk creates a chunk for the given document at the given position.
func NewChunk(documentID ID, position int, content string) *Chunk {
	return &Chunk{
		ID:         NewID(),
		DocumentID: documentID,
		Position:   position,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// DatabaseStats is the operator-facing snapshot served by the admin
// stats endpoint. Graph-side counts are -1 when the graph store could
// not be reached, so partial stats remain distinguishable from zeros.
type DatabaseStats struct {
	Documents      map[DocumentStatus]int64 `json:"documents"`
	TotalDocuments int64                    `json:"total_documents"`
	Entities       int64                    `json:"entities"`
	Relationships  int64                    `json:"relationships"`
	CollectedAt    time.Time                `json:"collected_at"`
}

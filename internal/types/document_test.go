package types

import (
	"strings"
	"testing"
)

func TestNewDocumentRecord(t *testing.T) {
	tenantID := NewID()
	doc := NewDocumentRecord(tenantID, "report.pdf")

	if err := doc.ID.Validate(); err != nil {
		t.Errorf("generated ID invalid: %v", err)
	}
	if doc.TenantID != tenantID {
		t.Errorf("TenantID = %v, want %v", doc.TenantID, tenantID)
	}
	if doc.Status != DocumentStatusExtracting {
		t.Errorf("new documents must start in extracting, got %v", doc.Status)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDocumentRecord_Validate(t *testing.T) {
	valid := NewDocumentRecord(NewID(), "report.pdf")

	tests := []struct {
		name    string
		mutate  func(*DocumentRecord)
		wantErr string
	}{
		{"missing id", func(d *DocumentRecord) { d.ID = "" }, "document id"},
		{"bad tenant", func(d *DocumentRecord) { d.TenantID = "not-a-uuid" }, "tenant id"},
		{"blank filename", func(d *DocumentRecord) { d.Filename = "   " }, "filename"},
		{"bad status", func(d *DocumentRecord) { d.Status = "archived" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := *valid
			tt.mutate(&doc)
			err := doc.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewChunk(t *testing.T) {
	docID := NewID()
	chunk := NewChunk(docID, 3, "section text")

	if chunk.DocumentID != docID {
		t.Errorf("DocumentID = %v, want %v", chunk.DocumentID, docID)
	}
	if chunk.Position != 3 {
		t.Errorf("Position = %d, want 3", chunk.Position)
	}
	if err := chunk.ID.Validate(); err != nil {
		t.Errorf("generated chunk ID invalid: %v", err)
	}
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/danve93/Amber-sub001/internal/types"
)

// DocumentDAO provides status-store operations for documents and their
// chunks. It is the narrow interface consumed by the recovery scanner,
// the HTTP API, and the maintenance stats collector.
type DocumentDAO interface {
	// Create inserts a new document record
	Create(ctx context.Context, doc *types.DocumentRecord) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id types.ID) (*types.DocumentRecord, error)

	// ListByStatus lists all documents whose status is in the given set,
	// oldest first. An empty set yields an empty list.
	ListByStatus(ctx context.Context, statuses ...types.DocumentStatus) ([]*types.DocumentRecord, error)

	// HasChunks reports whether at least one chunk is persisted for the
	// document. This is the recovery scanner's completion evidence.
	HasChunks(ctx context.Context, documentID types.ID) (bool, error)

	// CompareAndSetStatus transitions the document's status only if its
	// current status still equals expected. It returns (true, nil) when
	// the transition committed and (false, nil) when another writer got
	// there first. The single conditional UPDATE is the serialization
	// point for concurrent recovery passes; no in-process lock is held.
	// An empty errorMessage clears the stored message.
	CompareAndSetStatus(ctx context.Context, id types.ID, expected, next types.DocumentStatus, errorMessage string) (bool, error)

	// CountByStatus returns document counts grouped by status
	CountByStatus(ctx context.Context) (map[types.DocumentStatus]int64, error)

	// InsertChunk persists one chunk for a document
	InsertChunk(ctx context.Context, chunk *types.Chunk) error

	// ChunkCount returns the number of chunks persisted for a document
	ChunkCount(ctx context.Context, documentID types.ID) (int64, error)
}

// documentDAO implements DocumentDAO
type documentDAO struct {
	db *DB
}

// NewDocumentDAO creates a new document DAO
func NewDocumentDAO(db *DB) DocumentDAO {
	return &documentDAO{db: db}
}

// Compile-time interface check
var _ DocumentDAO = (*documentDAO)(nil)

// Create inserts a new document record
func (d *documentDAO) Create(ctx context.Context, doc *types.DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = types.NewID()
	}
	if err := doc.Validate(); err != nil {
		return types.WrapError(types.DOCUMENT_INVALID, "invalid document record", err)
	}

	query := `
		INSERT INTO documents (id, tenant_id, filename, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.conn.ExecContext(ctx, query,
		doc.ID,
		doc.TenantID,
		doc.Filename,
		doc.Status,
		nullableString(doc.ErrorMessage),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create document", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (d *documentDAO) GetByID(ctx context.Context, id types.ID) (*types.DocumentRecord, error) {
	query := `
		SELECT id, tenant_id, filename, status, error_message, created_at, updated_at
		FROM documents
		WHERE id = ?
	`

	doc, err := scanDocument(d.db.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewError(types.DOCUMENT_NOT_FOUND, fmt.Sprintf("document not found: %s", id))
		}
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get document", err)
	}

	return doc, nil
}

// ListByStatus lists all documents whose status is in the given set
func (d *documentDAO) ListByStatus(ctx context.Context, statuses ...types.DocumentStatus) ([]*types.DocumentRecord, error) {
	if len(statuses) == 0 {
		return []*types.DocumentRecord{}, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT id, tenant_id, filename, status, error_message, created_at, updated_at
		FROM documents
		WHERE status IN (%s)
		ORDER BY created_at ASC, id ASC
	`, placeholders)

	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}

	rows, err := d.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list documents by status", err)
	}
	defer rows.Close()

	docs := []*types.DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan document row", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to iterate document rows", err)
	}

	return docs, nil
}

// HasChunks reports whether at least one chunk exists for the document
func (d *documentDAO) HasChunks(ctx context.Context, documentID types.ID) (bool, error) {
	var exists int
	query := `SELECT EXISTS(SELECT 1 FROM chunks WHERE document_id = ?)`

	if err := d.db.conn.QueryRowContext(ctx, query, documentID).Scan(&exists); err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to check chunk presence", err)
	}

	return exists == 1, nil
}

// CompareAndSetStatus performs the conditional status transition
func (d *documentDAO) CompareAndSetStatus(ctx context.Context, id types.ID, expected, next types.DocumentStatus, errorMessage string) (bool, error) {
	if !next.IsValid() {
		return false, types.NewError(types.DOCUMENT_INVALID_STATUS, fmt.Sprintf("invalid target status: %s", next))
	}

	query := `
		UPDATE documents
		SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := d.db.conn.ExecContext(ctx, query, next, nullableString(errorMessage), id, expected)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to update document status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}

	// Zero rows means the status moved (or the row vanished) between the
	// caller's read and this write. That is an expected race, not an error.
	return rowsAffected > 0, nil
}

// CountByStatus returns document counts grouped by status
func (d *documentDAO) CountByStatus(ctx context.Context) (map[types.DocumentStatus]int64, error) {
	rows, err := d.db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to count documents by status", err)
	}
	defer rows.Close()

	counts := make(map[types.DocumentStatus]int64)
	for rows.Next() {
		var status types.DocumentStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan count row", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// InsertChunk persists one chunk for a document
func (d *documentDAO) InsertChunk(ctx context.Context, chunk *types.Chunk) error {
	if chunk.ID == "" {
		chunk.ID = types.NewID()
	}

	query := `
		INSERT INTO chunks (id, document_id, position, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := d.db.conn.ExecContext(ctx, query,
		chunk.ID,
		chunk.DocumentID,
		chunk.Position,
		chunk.Content,
		chunk.CreatedAt,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to insert chunk", err)
	}

	return nil
}

// ChunkCount returns the number of chunks persisted for a document
func (d *documentDAO) ChunkCount(ctx context.Context, documentID types.ID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM chunks WHERE document_id = ?`

	if err := d.db.conn.QueryRowContext(ctx, query, documentID).Scan(&count); err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to count chunks", err)
	}

	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDocument scans one document row into a DocumentRecord
func scanDocument(row rowScanner) (*types.DocumentRecord, error) {
	var doc types.DocumentRecord
	var errorMessage sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.Filename,
		&doc.Status,
		&errorMessage,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if errorMessage.Valid {
		doc.ErrorMessage = errorMessage.String
	}

	return &doc, nil
}

// nullableString maps "" to NULL for optional text columns
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

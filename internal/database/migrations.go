package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migrator brings the status store schema up to date.
type Migrator interface {
	// Migrate applies all pending migrations.
	Migrate(ctx context.Context) error

	// CurrentVersion returns the highest applied schema version, 0 for a
	// fresh store.
	CurrentVersion(ctx context.Context) (int, error)

	// GetAppliedMigrations returns every applied migration in version order.
	GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error)
}

// MigrationInfo describes an applied migration.
type MigrationInfo struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// migration is one schema step. Statements run in order inside a single
// transaction.
type migration struct {
	version    int
	name       string
	statements []string
}

// schemaMigrations is the full schema history. Keep entries in ascending
// version order; Migrate walks the slice as declared.
var schemaMigrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				filename TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('extracting', 'classifying', 'chunking', 'ready', 'failed')),
				error_message TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id)`,
			`CREATE TABLE IF NOT EXISTS chunks (
				id TEXT PRIMARY KEY,
				document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (document_id, position)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)`,
		},
	},
	{
		version: 2,
		name:    "tenant_status_index",
		statements: []string{
			// The recovery scan and tenant-scoped listings both filter
			// on these two columns together.
			`CREATE INDEX IF NOT EXISTS idx_documents_tenant_status ON documents(tenant_id, status)`,
		},
	},
}

type migrator struct {
	db *DB
}

// NewMigrator creates a migrator for the status store.
func NewMigrator(db *DB) Migrator {
	return &migrator{db: db}
}

// Migrate applies every migration above the current version. Each step runs
// in its own transaction, so a failure leaves the store at the last version
// that fully applied.
func (m *migrator) Migrate(ctx context.Context) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, mig := range schemaMigrations {
		if mig.version <= current {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}
	return nil
}

// CurrentVersion reports the highest applied version, creating the tracking
// table on first contact with a fresh store.
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureTrackingTable(ctx); err != nil {
		return 0, err
	}

	var version int
	err := m.db.conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// GetAppliedMigrations lists the applied history in version order.
func (m *migrator) GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error) {
	if err := m.ensureTrackingTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.db.conn.QueryContext(ctx,
		"SELECT version, name, applied_at FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []MigrationInfo
	for rows.Next() {
		var info MigrationInfo
		if err := rows.Scan(&info.Version, &info.Name, &info.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied = append(applied, info)
	}
	return applied, rows.Err()
}

func (m *migrator) ensureTrackingTable(ctx context.Context) error {
	_, err := m.db.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// apply runs one migration and records it, all in a single transaction.
func (m *migrator) apply(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range mig.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
			mig.version, mig.name)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

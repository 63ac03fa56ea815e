package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the SQLite status store. It owns the pooled connection and is shared
// by the DAOs and the migrator.
type DB struct {
	conn *sql.DB
}

// Config controls how the status store is opened.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration // SQLite busy_timeout pragma
	PingTimeout     time.Duration // total budget for the open-time ping retry
}

// DefaultConfig returns the pool and timeout settings used when the caller
// has no opinion.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
		PingTimeout:     10 * time.Second,
	}
}

// Open opens the status store at path with default settings.
func Open(path string) (*DB, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the status store, retries the first ping, and
// verifies the WAL and foreign-key pragmas took effect. Concurrent readers
// during a recovery pass need WAL; the chunks table needs enforced foreign
// keys.
func OpenWithConfig(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open status store %s: %w", cfg.Path, err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(conn, cfg.PingTimeout); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping status store %s: %w", cfg.Path, err)
	}

	if err := verifyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// pingWithRetry verifies the connection with exponential backoff. The file
// may sit on slow network storage or be briefly locked by a sibling process.
func pingWithRetry(conn *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(func() error {
		return conn.PingContext(ctx)
	}, policy)
}

// verifyPragmas confirms the DSN pragmas actually applied. SQLite silently
// ignores unknown query parameters, so trust nothing.
func verifyPragmas(conn *sql.DB) error {
	var journalMode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to read journal_mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled (got %s)", journalMode)
	}

	var foreignKeys int
	if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		return fmt.Errorf("failed to read foreign_keys: %w", err)
	}
	if foreignKeys != 1 {
		return errors.New("foreign keys not enabled")
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Health reports whether the store answers queries. A full round trip, not
// just a ping, so a pooled handle whose file vanished is caught.
func (db *DB) Health(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("status store query failed: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("status store returned %d, want 1", one)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic. Panics are re-raised after rollback.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Compact truncates the WAL into the main file and vacuums it. Run after
// bulk deletions; both statements take exclusive locks, so not during a
// recovery pass.
func (db *DB) Compact(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint failed: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	return nil
}

// InitSchema brings the store to the current schema version.
func (db *DB) InitSchema(ctx context.Context) error {
	if err := NewMigrator(db).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

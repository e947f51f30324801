package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	maxRetries  = 5
	initialWait = 100 * time.Millisecond
	busyTimeout = 5000 // milliseconds
)

const slotsSchema = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteBackend keeps slots as rows of a single table.
type SQLiteBackend struct {
	conn *sql.DB
}

var (
	_ Backend   = (*SQLiteBackend)(nil)
	_ Recoverer = (*SQLiteBackend)(nil)
)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, busyTimeout)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer keeps slot writes serialized.
	conn.SetMaxOpenConns(1)

	b := &SQLiteBackend{conn: conn}
	if err := b.pingWithRetry(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, slotsSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) Read(ctx context.Context, slot string) ([]byte, error) {
	var value []byte
	err := b.conn.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, slot).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmptySlot
		}
		return nil, fmt.Errorf("read slot %q: %w", slot, err)
	}
	if len(value) == 0 {
		return nil, ErrEmptySlot
	}
	return value, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, slot string, data []byte) error {
	_, err := b.conn.ExecContext(ctx, `
INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		slot, data, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("write slot %q: %w", slot, err)
	}
	return nil
}

// Delete removes a slot so the next Read reports ErrEmptySlot.
func (b *SQLiteBackend) Delete(ctx context.Context, slot string) error {
	if _, err := b.conn.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, slot); err != nil {
		return fmt.Errorf("delete slot %q: %w", slot, err)
	}
	return nil
}

// Recover keeps no history, so it parks the unreadable value under
// "<slot>.corrupt-<timestamp>" and empties the slot.
func (b *SQLiteBackend) Recover(ctx context.Context, slot string, _ func([]byte) bool) ([]byte, string, error) {
	data, err := b.Read(ctx, slot)
	if errors.Is(err, ErrEmptySlot) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	parked := fmt.Sprintf("%s.corrupt-%s", slot, time.Now().UTC().Format("20060102-150405"))
	if err := b.Write(ctx, parked, data); err != nil {
		return nil, "", fmt.Errorf("park corrupt slot: %w", err)
	}
	if err := b.Delete(ctx, slot); err != nil {
		return nil, "", err
	}
	return nil, fmt.Sprintf("%s was corrupt; starting empty (kept as %s)", slot, parked), nil
}

func (b *SQLiteBackend) Close() error {
	return b.conn.Close()
}

// pingWithRetry attempts to ping the database with exponential backoff.
func (b *SQLiteBackend) pingWithRetry(ctx context.Context) error {
	wait := initialWait
	for i := 0; i < maxRetries; i++ {
		if err := b.conn.PingContext(ctx); err == nil {
			return nil
		}

		if i < maxRetries-1 {
			time.Sleep(wait)
			wait *= 2
		}
	}

	return fmt.Errorf("failed to ping database after %d retries", maxRetries)
}

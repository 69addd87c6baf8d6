package cache

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

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`

// SQLiteCache stores entries in a single SQLite database file. It suits
// machines where many small cache files are slow to create.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// NewSQLiteCache opens or creates the database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	// Pragmas in the DSN apply to every pooled connection. WAL lets parse
	// workers read while one writes.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteCache{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *SQLiteCache) Path() string { return c.path }

// Get retrieves a value. Expired rows are deleted and reported as a miss.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data      []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM entries WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expiresAt != 0 && time.Now().UnixMilli() > expiresAt {
		_ = c.Delete(ctx, key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value, replacing any previous one. A zero ttl never expires.
func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO entries (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, data, expiresAt)
	return err
}

// Delete removes a value.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	return err
}

// Clear removes every entry.
func (c *SQLiteCache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var (
	_ Cache   = (*SQLiteCache)(nil)
	_ Clearer = (*SQLiteCache)(nil)
)

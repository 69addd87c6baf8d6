// Package cache stores parse results keyed by file content.
//
// Parsing a source file with tree-sitter is the most expensive step of a
// scan. The scanner keys each parse result by a hash of the build, the file
// path, the parser options and the file content, so an unchanged file is never parsed
// twice, across runs when a persistent backend is used.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory (CLI default, XDG cache dir)
//   - [SQLiteCache]: one SQLite database file (modernc.org/sqlite, no cgo)
//   - [RedisCache]: a shared Redis instance (github.com/redis/go-redis/v9)
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] builds keys; [NewScopedKeyer] prefixes every key so that several
// projects can share one Redis database without colliding.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// DefaultTTL is how long parse results are kept when no TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour

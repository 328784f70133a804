// Package store persists flame presets and run summaries.
//
// A [Store] is a byte-oriented key/value store with optional expiration.
// Backends:
//   - [FileStore]: JSON files under a directory, for the CLI
//   - [RedisStore]: Redis, for servers sharing presets
//   - [MongoStore]: MongoDB, for long-lived preset collections
//   - [NullStore]: stores nothing, for --no-store and tests
//
// Keys are produced by a [Keyer] so that callers never hand-build them.
// Stored values are flame parameters and statistics; rendered pixels are
// never persisted.
package store

import (
	"context"
	"time"
)

// Store is the interface implemented by every backend.
type Store interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the live keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	// TTLPreset keeps presets until they are deleted.
	TTLPreset time.Duration = 0

	// TTLRun is how long headless run summaries stay cached.
	TTLRun = 7 * 24 * time.Hour
)

// Key prefixes.
const (
	PrefixPreset = "preset:"
	PrefixRun    = "run:"
)

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Package cache stores scan snapshots between runs.
//
// A [Cache] is a byte-oriented key/value store with optional expiry. Three
// backends are provided:
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for teams and CI
//   - [NullCache]: stores nothing, used when caching is disabled
//
// Keys are produced by a [Keyer] so that every option that changes the
// outcome of a scan is part of the key:
//
//	k := cache.NewDefaultKeyer()
//	key := k.SnapshotKey(fingerprint, cache.SnapshotKeyOpts{Dependencies: true})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for serialized snapshots.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	// Expired and unreadable entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

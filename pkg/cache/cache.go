// Package cache stores extraction results between runs.
//
// Calling the vision API is the slow and billed part of a run. Results are
// cached under a key derived from the model, the system instruction and the
// content of every image (see [Keyer]), so re-running on the same images
// skips the API entirely.
//
// Backends:
//
//   - [FileCache]: JSON entry files under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching
//
// All backends are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

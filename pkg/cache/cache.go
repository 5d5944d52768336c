// Package cache stores rendered detection reports and graph artifacts.
//
// A [Cache] is a byte store with per-entry TTL. Three backends are provided:
//
//   - [FileCache] keeps entries as JSON files below a directory (CLI default)
//   - [RedisCache] shares entries between API replicas
//   - [NullCache] disables caching
//
// Keys are produced by a [Keyer] from a content hash of the detection input
// plus every option that changes the output, so a changed input or option
// never returns a stale report.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default entry lifetimes.
const (
	TTLReport   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

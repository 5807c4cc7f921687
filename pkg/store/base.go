// Package store defines the durable key-value contract shared by the memory
// and autonomy components.
//
// Values are opaque bytes; every key carries its own expiry. Callers treat a
// failed read as a cold start and a failed write as a lost (but tolerable)
// update, so implementations should favor availability over strictness.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or expired.
var ErrNotFound = errors.New("store: key not found")

// Store is a key-value store with per-key expiry.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound if the key is
	// absent or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl <= 0 means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases resources held by the store.
	Close() error
}

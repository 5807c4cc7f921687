// Package ristretto provides an in-process store.Store backed by
// dgraph-io/ristretto.
//
// State kept here does not survive a restart; it is intended for tests and
// single-node deployments where the conversation TTL makes durability
// optional anyway.
package ristretto

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/helioscrm/cognition-go/pkg/store"
)

// Store implements store.Store on top of a ristretto cache.
type Store struct {
	cache *ristretto.Cache
}

// Config contains configuration for the in-memory store.
type Config struct {
	// MaxBytes caps the total size of cached values (default 64 MiB).
	MaxBytes int64
}

// New creates a new in-memory store.
func New(cfg *Config) (*Store, error) {
	maxBytes := int64(64 << 20)
	if cfg != nil && cfg.MaxBytes > 0 {
		maxBytes = cfg.MaxBytes
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 20,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}

	return &Store{cache: cache}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, store.ErrNotFound
	}
	return b, nil
}

// Set stores value under key. Writes are flushed synchronously so that a
// subsequent Get observes the update (read-modify-write is the dominant
// access pattern here).
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(value))
	if cost == 0 {
		cost = 1
	}
	if ttl > 0 {
		s.cache.SetWithTTL(key, value, cost, ttl)
	} else {
		s.cache.Set(key, value, cost)
	}
	s.cache.Wait()
	return nil
}

// Close releases the cache.
func (s *Store) Close() error {
	s.cache.Close()
	return nil
}

// Package claims implements the idempotency guard for event saves.
// A claim on a cache key marks that a save attempt for that logical
// event is in flight or has completed; concurrent or redelivered
// attempts must observe the claim and back off. This is the only state
// shared across consumer workers.
package claims

import (
	"context"
	"sync"
	"time"
)

// Store claims cache keys with atomic claim-or-detect semantics.
type Store interface {
	// Claim attempts to claim key. It returns true when the caller won
	// the claim and false when the key was already claimed. The claim
	// expires after the store's TTL so that abandoned keys do not pin
	// memory forever.
	Claim(ctx context.Context, key string) (bool, error)

	// Close releases underlying resources.
	Close() error
}

// MemoryStore is an in-process claim store for tests and single-node
// deployments.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	claims map[string]time.Time
}

// NewMemoryStore creates a claim store with the given TTL
// (zero means claims never expire).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		claims: make(map[string]time.Time),
	}
}

// Claim implements Store.
func (s *MemoryStore) Claim(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, ok := s.claims[key]; ok {
		if expiry.IsZero() || now.Before(expiry) {
			return false, nil
		}
	}

	var expiry time.Time
	if s.ttl > 0 {
		expiry = now.Add(s.ttl)
	}
	s.claims[key] = expiry
	return true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore claims cache keys in Redis via SETNX, giving atomic
// claim-or-detect semantics across consumer workers and processes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at url (redis:// form) and verifies
// the connection. Claims expire after ttl.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing client (used in tests).
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Claim implements Store. SETNX is the compare-and-set: exactly one of
// any number of concurrent claimants sees true.
func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	won, err := s.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return won, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

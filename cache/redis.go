package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store implementation.
//
// It performs only whole-value SET/GET/DEL with per-key TTLs; no Redis
// transactions or scripts are needed. The client is assumed to carry its
// own pooling and timeout configuration.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("cache: redis client is nil")
	}
	return &RedisStore{client: client}, nil
}

// Get retrieves a value. A missing key is a clean miss, not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: redis get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value with the given TTL. TTL<=0 means no caching.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a value. Idempotent - deleting a missing key succeeds.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache: redis del %q: %w", key, err)
	}
	return nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

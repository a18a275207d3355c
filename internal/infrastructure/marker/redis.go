// Package marker holds short-lived per-item markers ("pushing", "updating")
// so overlapping operations on the same item can be refused.
package marker

import (
	"context"
	"fmt"
	"time"

	"storefront-bridge/internal/ports"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "storefront:marker:"

// RedisStore implements MarkerStore using Redis, shared by every instance
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ ports.MarkerStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, opts *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ""), nil
}

// NewRedisStoreWithClient creates a store with an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Acquire sets the marker with SET NX and a TTL in one atomic call
func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire marker: %w", err)
	}
	return ok, nil
}

// Release removes the marker
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release marker: %w", err)
	}
	return nil
}

// Held reports whether the marker is currently set
func (s *RedisStore) Held(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check marker: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

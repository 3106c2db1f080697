package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openclave/walletauth/ports"
)

// RedisStore is the shared primary tier backed by Redis native expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed key-value store.
func NewRedisStore(client *redis.Client) ports.KeyValueStore {
	return &RedisStore{client: client}
}

// Set stores a key with a TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get retrieves a value by key. Absent keys return ("", nil).
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Del removes a key. Deleting an absent key is not an error; the returned
// bool says whether this call removed it.
func (s *RedisStore) Del(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %s: %w", key, err)
	}
	return removed > 0, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

// RedisStore is a Redis implementation of the KeyValueStore interface, for
// deployments where the client's session must be shared across processes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "authgate:",
	}
}

var _ ports.KeyValueStore = (*RedisStore)(nil)

// Get retrieves a value by key
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", core.ErrNotFound
		}
		return "", fmt.Errorf("failed to read key: %w", err)
	}

	return value, nil
}

// Set stores a value under a key with no expiration; session lifetime is
// governed by the server, not the store.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	return nil
}

// Delete removes a key; removing an absent key is a no-op
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

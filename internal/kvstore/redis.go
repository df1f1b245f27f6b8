package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/voice-studio/internal/core"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "voice-studio"

// RedisStore implements core.KeyValueStore on Redis strings. Values never expire.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix. Default is "voice-studio".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrKeyNotFound, key)
		}

		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	return data, nil
}

// Set replaces the value stored under key.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.client.Set(ctx, s.key(key), value, 0).Err()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.key(key)).Err()
	if err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}

	return nil
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}

	return s.prefix + ":" + key
}

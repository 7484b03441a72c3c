package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tayyabfareed009/newswatch/internal/credstore"
)

// RedisCredentialStore implements credstore.Store backed by Redis. Values never expire.
type RedisCredentialStore struct {
	client redis.UniversalClient
	prefix string
}

var _ credstore.Store = (*RedisCredentialStore)(nil)

// NewRedisCredentialStore constructs a Redis-backed credential store. Keys are namespaced with prefix.
func NewRedisCredentialStore(client redis.UniversalClient, prefix string) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, prefix: prefix}
}

// Get loads the raw value for key.
func (s *RedisCredentialStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", credstore.ErrNotFound
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

// Set persists value without TTL.
func (s *RedisCredentialStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key.
func (s *RedisCredentialStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces refresh tokens inside a shared redis instance.
const keyPrefix = "refresh_token:"

// RedisStore is a [TokenStore] backed by redis, for deployments where the
// token mapping should live in an external service rather than a local file.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed token store and verifies connectivity.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get returns the stored refresh token for userID.
func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}

	return token, nil
}

// Put stores refreshToken under userID with no expiration. Refresh tokens
// stay valid until the provider rotates them, so the entry never ages out.
func (s *RedisStore) Put(ctx context.Context, userID, refreshToken string) error {
	if err := s.client.Set(ctx, keyPrefix+userID, refreshToken, 0).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// Close releases the underlying redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nsrz/intranet/internal/persistence"
)

// SessionStore keeps revoked token ids and failed login counters.
type SessionStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RegisterFailure(ctx context.Context, email string, window time.Duration) (int64, error)
	Failures(ctx context.Context, email string) (int64, error)
	ResetFailures(ctx context.Context, email string) error
}

// RedisSessionStore implements SessionStore with expiring Redis keys.
type RedisSessionStore struct {
	client redis.Cmdable
}

func NewRedisSessionStore(client redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func revokedKey(tokenID string) string { return persistence.Key("revoked", tokenID) }

func failuresKey(email string) string {
	return persistence.Key("login-failures", strings.ToLower(strings.TrimSpace(email)))
}

// Revoke remembers tokenID until the token would have expired anyway.
func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

func (s *RedisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RegisterFailure bumps the counter. The window starts at the first failure.
func (s *RedisSessionStore) RegisterFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := failuresKey(email)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *RedisSessionStore) Failures(ctx context.Context, email string) (int64, error) {
	count, err := s.client.Get(ctx, failuresKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

func (s *RedisSessionStore) ResetFailures(ctx context.Context, email string) error {
	return s.client.Del(ctx, failuresKey(email)).Err()
}

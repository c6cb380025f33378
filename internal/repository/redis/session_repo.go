package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const SessionKeyPrefix = "login:user:session"

// SessionRepository keeps one live session per user: the id (jti) of the
// last issued token. Logging in elsewhere replaces it.
type SessionRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func sessionKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", SessionKeyPrefix, userID)
}

func (r *SessionRepository) Save(ctx context.Context, userID uint64, tokenID string) error {
	if err := r.Client.Set(ctx, sessionKey(userID), tokenID, r.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, userID uint64) (string, error) {
	id, err := r.Client.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return id, nil
}

// Extend slides the session expiry after a successful request.
func (r *SessionRepository) Extend(ctx context.Context, userID uint64) error {
	if err := r.Client.Expire(ctx, sessionKey(userID), r.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID uint64) error {
	if err := r.Client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

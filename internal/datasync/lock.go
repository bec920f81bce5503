package datasync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps two sync runs from touching the catalog at the same time.
// Acquire hands out a token per successful acquisition; only that token
// releases the lock.
type Lock interface {
	Acquire(ctx context.Context) (token string, ok bool, err error)
	Release(ctx context.Context, token string) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLock implements Lock using Redis SETNX + TTL. It holds no per-run
// state, so one instance is shared by every run in the process.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
}

func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return "", false, fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock only if token still owns it. An expired or foreign
// key is left alone.
func (l *RedisLock) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := l.client.CompareAndDelete(ctx, l.key, token); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/redis"
)

const (
	defaultTTL       = 10 * time.Second
	defaultRetryWait = 50 * time.Millisecond
	defaultAttempts  = 100
)

// RedisLocker acquires locks via SetNX with a TTL so a crashed holder
// cannot wedge an event forever.
type RedisLocker struct {
	client    *redis.Client
	scope     string
	ttl       time.Duration
	retryWait time.Duration
	attempts  int
}

// NewRedisLocker returns a Locker namespaced under scope.
func NewRedisLocker(client *redis.Client, scope string) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if scope == "" {
		return nil, fmt.Errorf("scope is required")
	}
	return &RedisLocker{
		client:    client,
		scope:     scope,
		ttl:       defaultTTL,
		retryWait: defaultRetryWait,
		attempts:  defaultAttempts,
	}, nil
}

// WithLock spins on SetNX until the lock is acquired or the context expires,
// runs fn, then releases the lock.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := l.client.LockKey(l.scope, key)
	token := uuid.NewString()

	acquired := false
	for attempt := 0; attempt < l.attempts; attempt++ {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl)
		if err != nil {
			return fmt.Errorf("acquiring lock %s: %w", lockKey, err)
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryWait):
		}
	}
	if !acquired {
		return fmt.Errorf("lock %s: timed out", lockKey)
	}

	defer func() {
		// Best effort: only delete if we still own it.
		if current, err := l.client.Get(context.WithoutCancel(ctx), lockKey); err == nil && current == token {
			_ = l.client.Del(context.WithoutCancel(ctx), lockKey)
		}
	}()

	return fn(ctx)
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 6 * time.Hour

// Lock keeps two ingest runs from writing the same tables at once. The holder
// is identified by its run id, so a skipped run can log who is in the way.
type Lock interface {
	Acquire(ctx context.Context, runID string) (bool, error)
	Release(ctx context.Context) error
	// Holder returns the run id currently holding the lock, or "" when free.
	Holder(ctx context.Context) (string, error)
}

// NoopLock always succeeds. It is used when no Redis endpoint is configured.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context, string) (bool, error) { return true, nil }

func (NoopLock) Release(context.Context) error { return nil }

func (NoopLock) Holder(context.Context) (string, error) { return "", nil }

// runLockStore is the slice of pkg/redis the run lock needs.
type runLockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}

// RedisLock stores the owning run id under one key per environment. The TTL
// bounds how long a crashed run can block the next one.
type RedisLock struct {
	store runLockStore
	key   string
	ttl   time.Duration
	runID string
}

func NewRedisLock(store runLockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// Acquire claims the lock for runID.
func (l *RedisLock) Acquire(ctx context.Context, runID string) (bool, error) {
	if runID == "" {
		return false, errors.New("run id is required")
	}
	ok, err := l.store.SetNX(ctx, l.key, runID, l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", l.key, err)
	}
	if ok {
		l.runID = runID
	}
	return ok, nil
}

// Release frees the lock if it still belongs to the acquiring run. A lock
// that expired and was claimed by another run is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.runID == "" {
		return nil
	}
	runID := l.runID
	l.runID = ""
	if _, err := l.store.CompareAndDelete(ctx, l.key, runID); err != nil {
		return fmt.Errorf("release %s for run %s: %w", l.key, runID, err)
	}
	return nil
}

func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	runID, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", l.key, err)
	}
	return runID, nil
}

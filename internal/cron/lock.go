package cron

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgredis "github.com/convoyapp/convoy-backend/pkg/redis"
	"github.com/google/uuid"
)

// Locker guards a cron cycle so only one worker runs it at a time.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// RedisLock is a best-effort distributed lock on SetNX with a TTL. The TTL
// must outlive the longest cycle; a crashed holder frees the lock when it
// expires.
type RedisLock struct {
	client *pkgredis.Client
	owner  string
}

// NewRedisLock creates a lock helper with a unique owner token.
func NewRedisLock(client *pkgredis.Client) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisLock{client: client, owner: uuid.NewString()}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.client.LockKey(name), l.owner, ttl)
}

// Release drops the lock only when this worker still holds it.
func (l *RedisLock) Release(ctx context.Context, name string) error {
	key := l.client.LockKey(name)
	holder, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return err
	}
	if holder != l.owner {
		return nil
	}
	return l.client.Del(ctx, key)
}

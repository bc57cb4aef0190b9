// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"serial-codegen/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	lockAttempts = 5
	lockBackoff  = 50 * time.Millisecond
)

// RedisLocker is a single-instance SETNX lock with token-checked release.
type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// TryLock returns a release token, or domain.ErrLockHeld after a few short retries.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < lockAttempts; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			lastErr = err
		} else if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrLockHeld
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Unlock deletes key only if it still holds token.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}

// NoopLocker is used when no Redis is configured; every TryLock succeeds.
type NoopLocker struct{}

func (NoopLocker) TryLock(context.Context, string, time.Duration) (string, error) { return "noop", nil }

func (NoopLocker) Unlock(context.Context, string, string) error { return nil }

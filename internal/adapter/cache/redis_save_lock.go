package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
	"github.com/thomkungss/expense-bot-setup/internal/repository"
)

const lockPrefix = "config:lock:"

// unlockScript deletes the key only when it still holds our token, so an
// expired lock taken over by another saver is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

// RedisSaveLock implements SaveLocker backed by Redis SET NX.
type RedisSaveLock struct {
	client redis.UniversalClient
}

var _ repository.SaveLocker = (*RedisSaveLock)(nil)

// NewRedisSaveLock constructs a Redis-backed save lock.
func NewRedisSaveLock(client redis.UniversalClient) *RedisSaveLock {
	return &RedisSaveLock{client: client}
}

// Lock acquires the per-user key with a TTL guarding against a crashed
// holder. A held key maps to domain.ErrSaveInProgress.
func (l *RedisSaveLock) Lock(ctx context.Context, key string, ttl time.Duration) (repository.UnlockFunc, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire save lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSaveInProgress
	}
	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{lockPrefix + key}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release save lock: %w", err)
		}
		return nil
	}, nil
}

// NoopSaveLock is used when Redis is not configured. It provides no
// cross-process exclusion and is only suitable for a single instance
// serving human-paced saves.
type NoopSaveLock struct{}

var _ repository.SaveLocker = (*NoopSaveLock)(nil)

// Lock always succeeds.
func (NoopSaveLock) Lock(context.Context, string, time.Duration) (repository.UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}

package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vericlip:lock:"

// releaseScript deletes the lock key only when the stored token matches
// the holder's token, so an expired-and-reacquired lock is never
// released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a Manager backed by Redis SET NX PX with an owner token.
// The TTL bounds how long a crashed holder can block other instances.
type RedisLock struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLock creates a Redis-backed lock manager.
// Parameters:
//   - client: connected Redis client.
//   - ttl: lock expiry; must exceed the longest expected pipeline run.
// Returns:
//   - *RedisLock: lock manager instance.
func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client:        client,
		ttl:           ttl,
		retryInterval: 200 * time.Millisecond,
	}
}

// Acquire blocks until the lock for key is held or ctx is done.
// A Redis transport error is returned immediately rather than retried:
// the caller degrades to non-exclusive execution instead of failing.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: lock name, typically the video ID.
// Returns:
//   - Handle: release handle; Release is idempotent.
//   - error: transport error or ctx.Err().
func (l *RedisLock) Acquire(ctx context.Context, key string) (Handle, error) {
	token := uuid.New().String()
	redisKey := redisKeyPrefix + key

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &redisHandle{client: l.client, key: redisKey, token: token}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type redisHandle struct {
	client *redis.Client
	key    string
	token  string
	once   sync.Once
}

// Release releases the lock. Safe to call more than once. Release runs
// on its own short deadline so a stuck Redis cannot block unwinding;
// the TTL reclaims the lock if the delete is lost.
func (h *redisHandle) Release() {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err()
	})
}

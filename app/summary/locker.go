package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SetNX based lock shared by every instance pointing at the
// same Redis. When Redis is unreachable the lock is granted so summarization
// keeps working; the database constraint still prevents duplicate rows.
type RedisLocker struct {
	rdb          *redis.Client
	ttl          time.Duration
	pollInterval time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:          rdb,
		ttl:          ttl,
		pollInterval: 500 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = "newsletter-digest:lock:" + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Redis lock unavailable, proceeding without it", "key", key, "error", err)
			return func() {}, nil
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
		slog.Warn("Failed to release Redis lock", "key", key, "error", err)
	}
}

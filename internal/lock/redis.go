package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "marathon:lock:"
	retryInterval  = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process pointed at the same Redis.
// A lock expires after ttl even if its holder dies.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{rdb: client, ttl: ttl, logger: logger}, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	rkey := redisKeyPrefix + key

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, rkey, token, r.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(key, rkey, token) })
	}, nil
}

func (r *Redis) release(key, rkey, token string) {
	// Release on a fresh context so a cancelled request still frees the key.
	relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(relCtx, r.rdb, []string{rkey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Warn("Failed to release lock", "key", key, "error", err)
	}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

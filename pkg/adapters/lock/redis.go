package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// releaseScript deletes the key only while it still carries our token, so
// an expired lease never releases somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds owner locks as Redis leases (SET NX PX), so several
// API instances can share them.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewRedisLocker connects to redisURL and verifies the connection.
func NewRedisLocker(redisURL string, ttl, wait time.Duration, logger *zap.Logger) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLockerWithClient(client, ttl, wait, logger), nil
}

// NewRedisLockerWithClient builds a locker around an existing client.
func NewRedisLockerWithClient(client *redis.Client, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: "linkhub:lock:",
		ttl:    ttl,
		wait:   wait,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w: %w", key, domain.ErrStorageUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %w", key, domain.ErrStorageUnavailable, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() { l.release(redisKey, token) }, nil
}

func (l *RedisLocker) release(redisKey, token string) {
	// The caller's context may already be done; release on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil {
		l.logger.Warn("Failed to release owner lock", zap.String("key", redisKey), zap.Error(err))
		return
	}
	if n == 0 {
		l.logger.Warn("Owner lock expired before release", zap.String("key", redisKey))
	}
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

var _ ports.OwnerLocker = (*RedisLocker)(nil)

package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes booking creation. The returned unlock must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MutexLocker serializes callers within one process.
type MutexLocker struct {
	sem chan struct{}
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1)}
}

func (l *MutexLocker) Lock(ctx context.Context, _ string) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes callers across replicas with SET NX PX. The TTL
// bounds how long a crashed holder blocks others.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedisLocker logs failed releases to logger. A lock that was not released
// blocks creates until its TTL expires.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if prefix == "" {
		prefix = "scheduling:lock"
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, retry: 25 * time.Millisecond, logger: logger}
}

var (
	errLockNotAcquired = errors.New("lock not acquired")
	errLockLost        = errors.New("lock expired or taken over before release")
)

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				if err := l.release(fullKey, token); err != nil {
					l.logger.Warn("create lock release failed", "key", fullKey, "ttl_ms", l.ttl.Milliseconds(), "err", err)
				}
			}, nil
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(errLockNotAcquired, ctx.Err())
		case <-timer.C:
		}
	}
}

// release deletes fullKey only while it still holds token.
func (l *RedisLocker) release(fullKey, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := releaseScript.Run(ctx, l.rdb, []string{fullKey}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return errLockLost
	}
	return nil
}

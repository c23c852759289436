package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired holder never frees a lock someone else has taken since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a lease lock shared by every instance using the same Redis:
//
//	SET lock:{key} {token} NX PX {ttl}
//
// The lease expires on its own if the holder dies.
type Locker struct {
	client   *redis.Client
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
	logger   *slog.Logger
}

var _ app.Locker = (*Locker)(nil)

// NewLocker builds a locker whose leases last ttl. Acquire gives up after
// wait even if ctx is still alive.
func NewLocker(client *redis.Client, ttl, wait time.Duration, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		client:   client,
		ttl:      ttl,
		wait:     wait,
		interval: 25 * time.Millisecond,
		logger:   logger,
	}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	token := uuid.NewString()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(lockKey, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) release(lockKey, token string) {
	// The caller's context may already be gone by the time it releases.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
		l.logger.Warn("lock release failed", "key", lockKey, "error", err)
	}
}

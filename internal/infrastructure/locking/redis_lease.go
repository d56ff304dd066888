package locking

import (
	"context"
	"errors"
	"time"

	appbilling "github.com/gharbeti/backend/internal/application/billing"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// leaseKey is the Redis key guarding the daily billing run across instances
const leaseKey = "gharbeti:billing:run-lease"

// RedisRunLease implements the application RunLease with a Redis lock so
// only one instance executes the billing cycle at a time
type RedisRunLease struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRunLease creates a new RedisRunLease
func NewRedisRunLease(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRunLease {
	return &RedisRunLease{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire obtains the run lease. It returns ErrLeaseUnavailable when another
// holder has it, and a release func that must be called when the run ends.
func (l *RedisRunLease) Acquire(ctx context.Context) (func(), error) {
	lock, err := l.locker.Obtain(ctx, leaseKey, l.ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, appbilling.ErrLeaseUnavailable
		}
		return nil, err
	}

	release := func() {
		// the lease also expires on its own, so a failed release only
		// delays the next run
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release billing run lease", zap.Error(err))
		}
	}
	return release, nil
}

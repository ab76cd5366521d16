package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DistributedLimiter combines local rate.Limiter with an optional Redis counter for global enforcement.
type DistributedLimiter struct {
	localLimiter *rate.Limiter
	redisClient  *redis.Client // nil => local only
	key          string        // e.g: "global:scorer_rate"
	ttl          time.Duration // e.g: 1s for counter-expiry
	globalLimit  int64
	logger       *zap.Logger
}

// NewDistributedLimiter creates a limiter; if ratePerSec=0, it's unlimited.
func NewDistributedLimiter(redisClient *redis.Client, key string, ratePerSec, burst int, ttl time.Duration, logger *zap.Logger) *DistributedLimiter {
	var local *rate.Limiter
	if ratePerSec > 0 {
		if burst <= 0 {
			burst = ratePerSec
		}
		local = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return &DistributedLimiter{
		localLimiter: local,
		redisClient:  redisClient,
		key:          key,
		ttl:          ttl,
		globalLimit:  int64(burst),
		logger:       logger,
	}
}

// Wait blocks until a token is available or maxWait elapses. A wait that cannot be
// satisfied within maxWait fails fast with ErrRateLimitExceeded.
func (d *DistributedLimiter) Wait(ctx context.Context, maxWait time.Duration) error {
	if d == nil || d.localLimiter == nil {
		return nil // Unlimited
	}

	waitCtx := ctx
	if maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}
	if err := d.localLimiter.Wait(waitCtx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimitExceeded, err)
	}

	if d.redisClient == nil {
		return nil
	}

	return d.checkGlobal(ctx)
}

// checkGlobal counts the call in the shared fixed window. The expiry is set only when the
// window opens, so steady traffic cannot keep an exhausted counter alive.
func (d *DistributedLimiter) checkGlobal(ctx context.Context) error {
	count, err := d.redisClient.Incr(ctx, d.key).Result()
	if err != nil {
		d.logger.Error("redis rate limit error; falling back to local", zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := d.redisClient.Expire(ctx, d.key, d.ttl).Err(); err != nil {
			d.logger.Error("redis rate limit expire failed", zap.Error(err), zap.String("key", d.key))
		}
	}

	if count > d.globalLimit {
		// Repair a window whose expiry was lost after the first increment.
		if ttl, err := d.redisClient.TTL(ctx, d.key).Result(); err == nil && ttl == -1 {
			_ = d.redisClient.Expire(ctx, d.key, d.ttl).Err()
		}
		d.logger.Warn("global rate limit exceeded", zap.Int64("count", count), zap.String("key", d.key))
		return ErrRateLimitExceeded
	}
	return nil
}

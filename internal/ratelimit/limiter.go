package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quotevox/quotevox-backend/internal/common"
)

// Limiter enforces a fixed-window per-user cap on expensive provider calls.
type Limiter struct {
	client   *redis.Client
	maxCalls int
	window   time.Duration
	logger   *slog.Logger
}

func NewLimiter(client *redis.Client, maxCalls int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{client: client, maxCalls: maxCalls, window: window, logger: logger}
}

// windowKey buckets a user into the fixed window containing now.
func windowKey(scope string, userID uuid.UUID, now time.Time, window time.Duration) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, userID, bucket)
}

// Allow counts one call in the current window and fails with RATE_LIMITED once
// the cap is exceeded. Redis being unreachable does not block the pipeline: the
// limiter fails open and logs.
func (l *Limiter) Allow(ctx context.Context, scope string, userID uuid.UUID) error {
	if l.client == nil || l.maxCalls <= 0 {
		return nil
	}

	key := windowKey(scope, userID, time.Now(), l.window)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("ratelimit.redis_unavailable", "scope", scope, "error", err)
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("ratelimit.expire_failed", "key", key, "error", err)
		}
	}

	if count > int64(l.maxCalls) {
		l.logger.Warn("ratelimit.exceeded", "scope", scope, "user_id", userID, "count", count)
		return common.NewAppError(common.CodeRateLimited,
			fmt.Sprintf("limit of %d %s calls per %s exceeded", l.maxCalls, scope, l.window), nil)
	}
	return nil
}

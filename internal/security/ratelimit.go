package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window request limiter backed by Redis. A nil
// client or non-positive limit disables limiting.
type RedisLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

func (l *RedisLimiter) window() time.Duration {
	if l.Window <= 0 {
		return time.Minute
	}
	return l.Window
}

// Allow counts one request against key's current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.Redis == nil || l.Limit <= 0 {
		return true, nil
	}

	window := l.window()
	bucket := time.Now().Unix() / int64(window.Seconds())
	k := fmt.Sprintf("%s:%s:%d", l.Prefix, key, bucket)

	pipe := l.Redis.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.Limit), nil
}

// RateLimitMiddleware rejects requests over the limit with 429. A limiter
// error fails open: the dashboard stays reachable when Redis is not.
func RateLimitMiddleware(l *RedisLimiter, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if keyFn != nil {
				key = keyFn(r)
			}
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.Allow(r.Context(), key)
			if err != nil || allowed {
				next.ServeHTTP(w, r)
				return
			}
			WriteJSONError(w, r, http.StatusTooManyRequests, "rate_limited")
		})
	}
}

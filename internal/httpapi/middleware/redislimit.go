package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SharedLimiter counts requests per client in Redis so every web instance behind
// the same proxy enforces one budget. It uses a sliding window counter: the previous
// minute's count is weighted by how much of it still overlaps the window.
type SharedLimiter struct {
	Client *redis.Client
	Limit  int64
	Window time.Duration
	Prefix string
	Log    *zap.Logger

	now func() time.Time
}

func NewSharedLimiter(rdb *redis.Client, reqPerMin int, log *zap.Logger) *SharedLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SharedLimiter{
		Client: rdb,
		Limit:  int64(reqPerMin),
		Window: time.Minute,
		Prefix: "livestatus:rl",
		Log:    log,
		now:    time.Now,
	}
}

func (l *SharedLimiter) key(id string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.Prefix, id, at.Truncate(l.Window).Unix())
}

// Allow records one request for id and reports whether it fits the budget.
// Redis errors are returned with allowed=true; callers fail open.
func (l *SharedLimiter) Allow(ctx context.Context, id string, now time.Time) (bool, error) {
	cur := l.key(id, now)
	prev := l.key(id, now.Add(-l.Window))

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, cur)
	pipe.Expire(ctx, cur, 2*l.Window)
	before := pipe.Get(ctx, prev)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return true, err
	}

	prevCount, _ := before.Int64()
	elapsed := now.Sub(now.Truncate(l.Window))
	overlap := 1 - float64(elapsed)/float64(l.Window)
	estimated := int64(float64(prevCount)*overlap) + incr.Val()
	return estimated <= l.Limit, nil
}

// Middleware enforces the shared budget. A zero limit disables it.
func (l *SharedLimiter) Middleware() func(http.Handler) http.Handler {
	if l == nil || l.Limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	now := l.now
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, err := l.Allow(r.Context(), ip, now())
			if err != nil {
				l.Log.Warn("rate_limit_store_error", zap.String("ip", ip), zap.Error(err))
			}
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSharedLimiter_KeyBucketsByWindow(t *testing.T) {
	l := NewSharedLimiter(nil, 10, nil)
	at := time.Unix(1_699_999_980+10, 0)
	assert.Equal(t, "livestatus:rl:1.2.3.4:1699999980", l.key("1.2.3.4", at))
	assert.Equal(t, l.key("x", at), l.key("x", at.Add(20*time.Second)))
	assert.NotEqual(t, l.key("x", at), l.key("x", at.Add(time.Minute)))
}

func TestSharedLimiter_FailsOpenWhenStoreIsDown(t *testing.T) {
	l := NewSharedLimiter(unreachableRedis(t), 1, zap.NewNop())

	ok, err := l.Allow(context.Background(), "1.2.3.4", time.Now())
	require.Error(t, err)
	assert.True(t, ok)

	h := l.Middleware()(okHandler())
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/system", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestSharedLimiter_ZeroDisables(t *testing.T) {
	var l *SharedLimiter
	rr := httptest.NewRecorder()
	l.Middleware()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

// windowStart is a whole minute, so offsets below land at known points of the window.
var windowStart = time.Unix(1_699_999_980, 0)

func newMiniLimiter(t *testing.T, limit int) (*SharedLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSharedLimiter(rdb, limit, zap.NewNop()), mr
}

func TestSharedLimiter_AllowsLimitThenRejects(t *testing.T) {
	l, mr := newMiniLimiter(t, 3)
	now := windowStart.Add(30 * time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4", now)
		require.NoError(t, err, "missing previous window must not be an error")
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := l.Allow(ctx, "1.2.3.4", now)
	require.NoError(t, err)
	assert.False(t, ok)

	// other clients have their own budget
	ok, err = l.Allow(ctx, "5.6.7.8", now)
	require.NoError(t, err)
	assert.True(t, ok)

	cur := l.key("1.2.3.4", now)
	got, err := mr.Get(cur)
	require.NoError(t, err)
	assert.Equal(t, "4", got)
	assert.True(t, mr.TTL(cur) > 0, "current window key must expire")
}

func TestSharedLimiter_WeightsPreviousWindow(t *testing.T) {
	l, mr := newMiniLimiter(t, 10)
	ctx := context.Background()

	// 45s in, a quarter of the previous minute still overlaps: 20 * 0.25 = 5 carried over
	late := windowStart.Add(45 * time.Second)
	require.NoError(t, mr.Set(l.key("a", windowStart.Add(-time.Second)), "20"))
	for i := 0; i < 5; i++ {
		ok, err := l.Allow(ctx, "a", late)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := l.Allow(ctx, "a", late)
	require.NoError(t, err)
	assert.False(t, ok)

	// 15s in, three quarters overlap: 20 * 0.75 = 15 already exceeds the limit
	early := windowStart.Add(15 * time.Second)
	require.NoError(t, mr.Set(l.key("b", windowStart.Add(-time.Second)), "20"))
	ok, err = l.Allow(ctx, "b", early)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSharedLimiter_MiddlewareAnswers429(t *testing.T) {
	l, _ := newMiniLimiter(t, 1)
	l.now = func() time.Time { return windowStart.Add(10 * time.Second) }
	h := l.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/system", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rr.Body.String())
}

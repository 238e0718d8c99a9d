package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l, err := NewRedisLimiter(rdb, StrictPolicy, "test")
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "198.51.100.7")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i+1)
	}
	d, err := l.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Greater(t, d.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, d.RetryAfter, StrictPolicy.Window)

	// Further attempts do not grow the counter past limit+1.
	for i := 0; i < 10; i++ {
		_, _ = l.Allow(ctx, "198.51.100.7")
	}
	v, err := mr.Get("test:198.51.100.7")
	require.NoError(t, err)
	require.Equal(t, "6", v)

	mr.FastForward(StrictPolicy.Window)
	d, err = l.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestRedisLimiter_ConcurrentCountIntegrity(t *testing.T) {
	_, rdb := newTestRedis(t)
	l, _ := NewRedisLimiter(rdb, Policy{Limit: 20, Window: time.Minute}, "")
	ctx := context.Background()

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				d, err := l.Allow(ctx, "shared")
				if err == nil && d.Allowed {
					accepted.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(20), accepted.Load())
}

func TestRedisLimiter_BackendDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l, _ := NewRedisLimiter(rdb, StrictPolicy, "test")
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestNewRedisLimiter_Validates(t *testing.T) {
	_, err := NewRedisLimiter(nil, StrictPolicy, "")
	require.Error(t, err)
}

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterClient keeps INCR/EXPIRE state in memory.
type counterClient struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
	incrErr error
}

func newCounterClient() *counterClient {
	return &counterClient{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (c *counterClient) Ping(ctx context.Context) error { return nil }
func (c *counterClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (c *counterClient) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (c *counterClient) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.counts, k)
	}
	return nil
}
func (c *counterClient) Close() error { return nil }

func (c *counterClient) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *counterClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[key] = expiration
	return nil
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit within a window", func(t *testing.T) {
		client := newCounterClient()
		rl := NewRateLimiter(client)
		key := UserRouteKey("u-1", "payments.initiate")

		for i := 0; i < 3; i++ {
			ok, err := rl.Allow(ctx, key, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok, "request %d should pass", i+1)
		}
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, time.Minute, client.expires[key], "window is set on the first hit")
	})

	t.Run("keys are isolated per user and route", func(t *testing.T) {
		rl := NewRateLimiter(newCounterClient())
		ok, _ := rl.Allow(ctx, UserRouteKey("u-1", "orders.create"), 1, time.Minute)
		assert.True(t, ok)
		ok, _ = rl.Allow(ctx, UserRouteKey("u-2", "orders.create"), 1, time.Minute)
		assert.True(t, ok)
		ok, _ = rl.Allow(ctx, UserRouteKey("u-1", "payments.initiate"), 1, time.Minute)
		assert.True(t, ok)
	})

	t.Run("backend errors surface", func(t *testing.T) {
		client := newCounterClient()
		client.incrErr = errors.New("connection reset")
		_, err := NewRateLimiter(client).Allow(ctx, "k", 1, time.Minute)
		assert.Error(t, err)
	})
}

func TestUserRouteKey(t *testing.T) {
	assert.Equal(t, "rate_limit:u-1:orders.create", UserRouteKey("u-1", "orders.create"))
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockdata-subscription/internal/domain"
)

func TestRedisLocker_BackendDown(t *testing.T) {
	cli := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer cli.Close()

	l := NewLocker(NewFromRedis(cli))
	l.tries, l.backoff = 2, time.Millisecond

	_, err := l.TryLock(context.Background(), "webhook:txn:ref-1", time.Second)
	require.Error(t, err)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.NotErrorIs(t, err, domain.ErrLockHeld)
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	cli := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer cli.Close()

	l := NewLocker(NewFromRedis(cli))
	l.backoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.TryLock(ctx, "k", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

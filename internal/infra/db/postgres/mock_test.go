//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
	red "mockdata-subscription/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerSubscriptionRepo mocks the database repository that the decorator wraps.
type mockInnerSubscriptionRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error)
	FindByNameFunc func(ctx context.Context, tx repository.Tx, name model.SubscriptionType) (*model.Subscription, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error)
}

func (m *mockInnerSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	return m.SaveFunc(ctx, tx, s)
}
func (m *mockInnerSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerSubscriptionRepo) FindByName(ctx context.Context, tx repository.Tx, name model.SubscriptionType) (*model.Subscription, error) {
	return m.FindByNameFunc(ctx, tx, name)
}
func (m *mockInnerSubscriptionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	return m.ListAllFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an empty cache.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", redis.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	if m.IncrFunc == nil {
		return 1, nil
	}
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if m.ExpireFunc == nil {
		return nil
	}
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return nil }

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/infra/metrics"
	red "mockdata-subscription/internal/infra/redis"
)

var _ repository.SubscriptionRepository = (*subscriptionRepoCacheDecorator)(nil)

const subscriptionListKey = "subscriptions:all"

// subscriptionRepoCacheDecorator keeps the read-mostly catalog in Redis.
// Reads inside a transaction bypass the cache.
type subscriptionRepoCacheDecorator struct {
	inner repository.SubscriptionRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSubscriptionRepoCacheDecorator(inner repository.SubscriptionRepository, cache red.RedisClient, ttl time.Duration, log *zerolog.Logger) repository.SubscriptionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &subscriptionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: log}
}

func (d *subscriptionRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	return d.one(ctx, fmt.Sprintf("subscription:id:%s", id), func() (*model.Subscription, error) {
		return d.inner.FindByID(ctx, tx, id)
	})
}

func (d *subscriptionRepoCacheDecorator) FindByName(ctx context.Context, tx repository.Tx, name model.SubscriptionType) (*model.Subscription, error) {
	if tx != nil {
		return d.inner.FindByName(ctx, tx, name)
	}
	return d.one(ctx, fmt.Sprintf("subscription:name:%s", name), func() (*model.Subscription, error) {
		return d.inner.FindByName(ctx, tx, name)
	})
}

func (d *subscriptionRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	if tx != nil {
		return d.inner.ListAll(ctx, tx)
	}
	val, err := d.cache.Get(ctx, subscriptionListKey)
	if err == nil {
		var subs []*model.Subscription
		if json.Unmarshal([]byte(val), &subs) == nil {
			metrics.IncCacheRequest("subscription_list", "hit")
			return subs, nil
		}
	} else if !red.IsMiss(err) {
		d.log.Warn().Err(err).Str("key", subscriptionListKey).Msg("subscription cache read failed")
	}

	metrics.IncCacheRequest("subscription_list", "miss")
	subs, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(subs) > 0 {
		if b, err := json.Marshal(subs); err == nil {
			_ = d.cache.Set(ctx, subscriptionListKey, b, d.ttl)
		}
	}
	return subs, nil
}

// Save invalidates every key the entry could be cached under.
func (d *subscriptionRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if err := d.inner.Save(ctx, tx, s); err != nil {
		return err
	}
	_ = d.cache.Del(ctx,
		fmt.Sprintf("subscription:id:%s", s.ID),
		fmt.Sprintf("subscription:name:%s", s.Name),
		subscriptionListKey,
	)
	return nil
}

func (d *subscriptionRepoCacheDecorator) one(ctx context.Context, key string, load func() (*model.Subscription, error)) (*model.Subscription, error) {
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var s model.Subscription
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("subscription", "hit")
			return &s, nil
		}
	} else if !red.IsMiss(err) {
		d.log.Warn().Err(err).Str("key", key).Msg("subscription cache read failed")
	}

	metrics.IncCacheRequest("subscription", "miss")
	s, err := load()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return s, nil
}

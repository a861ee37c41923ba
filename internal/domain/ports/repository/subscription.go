package repository

import (
	"context"

	"mockdata-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for the subscription catalog.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByName(ctx context.Context, tx Tx, name model.SubscriptionType) (*model.Subscription, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Subscription, error)
}

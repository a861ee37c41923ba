package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/infra/logging"
)

// PlanUseCase exposes the subscription catalog.
type PlanUseCase interface {
	List(ctx context.Context) ([]*model.Subscription, error)
	// Seed upserts one catalog row per entry, keyed by plan name.
	Seed(ctx context.Context, prices map[model.SubscriptionType]decimal.Decimal) ([]*model.Subscription, error)
}

var _ PlanUseCase = (*planUC)(nil)

type planUC struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewPlanUseCase(subs repository.SubscriptionRepository, logger *zerolog.Logger) *planUC {
	return &planUC{subs: subs, log: logger}
}

func (u *planUC) List(ctx context.Context) ([]*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "PlanUC.List")()
	subs, err := u.subs.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*model.Subscription{}
	}
	return subs, nil
}

func (u *planUC) Seed(ctx context.Context, prices map[model.SubscriptionType]decimal.Decimal) ([]*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "PlanUC.Seed")()
	out := make([]*model.Subscription, 0, len(prices))
	for _, name := range []model.SubscriptionType{model.SubscriptionMonthly, model.SubscriptionAnnual} {
		price, ok := prices[name]
		if !ok {
			continue
		}
		s, err := model.NewSubscription(uuid.NewString(), name, price)
		if err != nil {
			return nil, err
		}
		if err := u.subs.Save(ctx, repository.NoTX, s); err != nil {
			return nil, err
		}
		u.log.Info().Str("plan", string(s.Name)).Str("price", s.Price.StringFixed(2)).Msg("catalog entry seeded")
		out = append(out, s)
	}
	return out, nil
}

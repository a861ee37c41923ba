// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/infra/metrics"
)

// CreateOrderResult carries the order and whether it pre-existed.
type CreateOrderResult struct {
	Order    *model.Order
	Existing bool
}

// OrderUseCase is the only way orders come into existence.
type OrderUseCase interface {
	Create(ctx context.Context, userID, subscriptionName string) (*CreateOrderResult, error)
	// GetByOwner returns the unpaid order, else the most recent one.
	GetByOwner(ctx context.Context, userID string) (*model.Order, error)
}

var _ OrderUseCase = (*orderUC)(nil)

type orderUC struct {
	orders repository.OrderRepository
	subs   repository.SubscriptionRepository
	tokens *TokenAllocator
	tm     repository.TransactionManager
	log    *zerolog.Logger
	now    func() time.Time
}

func NewOrderUseCase(
	orders repository.OrderRepository,
	subs repository.SubscriptionRepository,
	tokens *TokenAllocator,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *orderUC {
	return &orderUC{
		orders: orders,
		subs:   subs,
		tokens: tokens,
		tm:     tm,
		log:    logger,
		now:    time.Now,
	}
}

func (u *orderUC) Create(ctx context.Context, userID, subscriptionName string) (*CreateOrderResult, error) {
	defer logging.TraceDuration(u.log, "OrderUC.Create")()
	log := logging.With(ctx, u.log)

	if userID == "" {
		return nil, domain.Validation("user is required")
	}

	var res *CreateOrderResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.orders.LockOwner(ctx, tx, userID); err != nil {
			return err
		}

		unpaid, err := u.orders.FindUnpaidByUser(ctx, tx, userID)
		switch {
		case err == nil:
			res = &CreateOrderResult{Order: unpaid, Existing: true}
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		now := u.now()
		if _, err := u.orders.FindActiveByUser(ctx, tx, userID, now); err == nil {
			return domain.Conflict("active subscription still valid")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		name, ok := model.ParseSubscriptionType(subscriptionName)
		if !ok {
			return domain.NotFound("subscription not found")
		}
		sub, err := u.subs.FindByName(ctx, tx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("subscription not found")
			}
			return err
		}

		ref, err := u.tokens.Generate(ctx, tx)
		if err != nil {
			return err
		}
		o, err := model.NewOrder(uuid.NewString(), userID, ref, sub, now)
		if err != nil {
			return err
		}
		if err := u.orders.Create(ctx, tx, o); err != nil {
			return err
		}
		res = &CreateOrderResult{Order: o}
		return nil
	})

	if errors.Is(err, domain.ErrAlreadyExists) {
		// lost a race on the one-unpaid-order index; the winner's row is what the caller wants
		existing, ferr := u.orders.FindUnpaidByUser(ctx, repository.NoTX, userID)
		if ferr != nil {
			log.Error().Err(ferr).Msg("re-read unpaid order after unique violation")
			metrics.IncOrder("error")
			return nil, ferr
		}
		metrics.IncOrder("existing")
		return &CreateOrderResult{Order: existing, Existing: true}, nil
	}
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindConflict:
			metrics.IncOrder("active_conflict")
		case domain.KindNotFound:
			metrics.IncOrder("unknown_plan")
		default:
			metrics.IncOrder("error")
			log.Error().Err(err).Msg("create order failed")
		}
		return nil, err
	}

	if res.Existing {
		metrics.IncOrder("existing")
	} else {
		metrics.IncOrder("created")
		log.Info().Str("order_id", res.Order.ID).Str("reference", res.Order.Reference).
			Str("plan", string(res.Order.SubscriptionName)).Msg("order created")
	}
	return res, nil
}

func (u *orderUC) GetByOwner(ctx context.Context, userID string) (*model.Order, error) {
	defer logging.TraceDuration(u.log, "OrderUC.GetByOwner")()

	o, err := u.orders.FindUnpaidByUser(ctx, repository.NoTX, userID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	o, err = u.orders.FindLatestByUser(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("order not found")
	}
	return o, err
}

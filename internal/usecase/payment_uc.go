// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Initiate opens a provider checkout for the caller's unpaid order and
	// records a pending payment. The provider session is returned untouched.
	Initiate(ctx context.Context, userID string) (*adapter.InitSession, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	provider adapter.PaymentProvider
	currency model.Currency
	log      *zerolog.Logger
	now      func() time.Time
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	provider adapter.PaymentProvider,
	currency model.Currency,
	logger *zerolog.Logger,
) *paymentUC {
	if currency == "" {
		currency = model.CurrencyNGN
	}
	return &paymentUC{
		payments: payments,
		orders:   orders,
		users:    users,
		provider: provider,
		currency: currency,
		log:      logger,
		now:      time.Now,
	}
}

func (u *paymentUC) Initiate(ctx context.Context, userID string) (*adapter.InitSession, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Initiate")()
	log := logging.With(ctx, u.log)

	order, err := u.orders.FindUnpaidByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("order not found")
		}
		return nil, err
	}
	if !order.TotalAmount.IsPositive() {
		return nil, domain.Validation("invalid order amount")
	}

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, err
	}

	sess, err := u.provider.Initialize(ctx, user.Email, model.MinorUnits(order.TotalAmount), string(u.currency))
	if err != nil {
		var pe *adapter.ProviderError
		if errors.As(err, &pe) {
			log.Warn().Int("status", pe.Status).Str("order_id", order.ID).Msg("provider rejected initialization")
			return nil, err
		}
		if domain.KindOf(err) == domain.KindUnavailable {
			return nil, err
		}
		return nil, domain.Unavailable("payment service unavailable", err)
	}

	now := u.now()
	p := &model.Payment{
		ID:             ulid.Make().String(),
		OrderID:        order.ID,
		Amount:         order.TotalAmount,
		Currency:       u.currency,
		TransactionID:  sess.Reference,
		Verified:       false,
		Status:         model.PaymentStatusInitiated,
		Timestamp:      now,
		ExpirationDate: now,
		CreatedAt:      now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Str("reference", sess.Reference).Msg("persist initiated payment")
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusInitiated))
	log.Info().Str("order_id", order.ID).Str("payment_id", p.ID).Str("reference", sess.Reference).
		Str("provider", u.provider.Name()).Msg("payment initiated")
	return sess, nil
}

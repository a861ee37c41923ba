package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/usecase"
)

const reconcileBatch = 200

// PaymentReconciler periodically re-verifies initiated payments that never
// saw a webhook, using the same path as charge.success deliveries.
type PaymentReconciler struct {
	webhooks   usecase.WebhookUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old an initiated payment must be to retry
	maxAge     time.Duration // older payments are left alone
	log        *zerolog.Logger
	now        func() time.Time
}

func NewPaymentReconciler(webhooks usecase.WebhookUseCase, payments repository.PaymentRepository, interval, staleAfter, maxAge time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	if maxAge <= staleAfter {
		maxAge = staleAfter + 48*time.Hour
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		webhooks:   webhooks,
		payments:   payments,
		interval:   interval,
		staleAfter: staleAfter,
		maxAge:     maxAge,
		log:        &l,
		now:        time.Now,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Dur("max_age", w.maxAge).Msg("starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one sweep and returns how many payments were applied.
func (w *PaymentReconciler) Tick(ctx context.Context) int {
	now := w.now()
	pending, err := w.payments.ListStaleUnverified(ctx, repository.NoTX, now.Add(-w.staleAfter), now.Add(-w.maxAge), reconcileBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale payments")
		return 0
	}

	applied := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		if p.Settled() {
			continue
		}
		res, err := w.webhooks.ReconcileReference(ctx, p.TransactionID)
		if err != nil {
			ev := w.log.Warn()
			if domain.KindOf(err) == domain.KindInternal {
				ev = w.log.Error()
			}
			ev.Err(err).Str("payment_id", p.ID).Str("reference", p.TransactionID).Msg("reconcile failed")
			continue
		}
		switch res.Outcome {
		case usecase.OutcomeApplied:
			applied++
			w.log.Info().Str("payment_id", p.ID).Str("reference", p.TransactionID).Msg("reconciled payment")
		case usecase.OutcomeFailed:
			w.log.Info().Str("payment_id", p.ID).Str("reference", p.TransactionID).Msg("provider closed payment; marked failed")
		case usecase.OutcomeNotSuccess:
			w.log.Debug().Str("payment_id", p.ID).Msg("provider has not confirmed payment yet")
		}
	}
	return applied
}

// File: internal/usecase/webhook_uc.go
package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/domain/ports/repository"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/infra/metrics"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Outcome values reported in WebhookResult.
const (
	OutcomeApplied    = "applied"
	OutcomeDuplicate  = "duplicate"
	OutcomeIgnored    = "ignored"
	OutcomeNotSuccess = "not_success"
	OutcomeFailed     = "failed"
)

// Accepted provider paid_at layouts, with and without fractional seconds.
var paidAtLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// WebhookResult describes what a delivery did. Every result is acknowledged.
type WebhookResult struct {
	Event     string
	Reference string
	Outcome   string
}

type WebhookUseCase interface {
	// Handle authenticates, parses and applies one provider notification.
	Handle(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error)
	// ReconcileReference re-runs success reconciliation for a reference
	// without a webhook body. A payment the provider reports as closed
	// (failed, abandoned, reversed) is marked failed.
	ReconcileReference(ctx context.Context, reference string) (*WebhookResult, error)
}

var _ WebhookUseCase = (*webhookUC)(nil)

type webhookUC struct {
	verifier adapter.WebhookVerifier
	provider adapter.PaymentProvider
	locker   adapter.Locker
	lockTTL  time.Duration
	tm       repository.TransactionManager
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	log      *zerolog.Logger
}

func NewWebhookUseCase(
	verifier adapter.WebhookVerifier,
	provider adapter.PaymentProvider,
	locker adapter.Locker,
	lockTTL time.Duration,
	tm repository.TransactionManager,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	logger *zerolog.Logger,
) *webhookUC {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &webhookUC{
		verifier: verifier,
		provider: provider,
		locker:   locker,
		lockTTL:  lockTTL,
		tm:       tm,
		payments: payments,
		orders:   orders,
		subs:     subs,
		users:    users,
		log:      logger,
	}
}

type webhookEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type webhookData struct {
	ID        json.RawMessage `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	PaidAt    string          `json:"paid_at"`
}

func (u *webhookUC) Handle(ctx context.Context, rawBody []byte, signature string) (res *WebhookResult, err error) {
	defer logging.TraceDuration(u.log, "WebhookUC.Handle")()

	if err := u.verifier.Verify(rawBody, signature); err != nil {
		metrics.IncWebhook("", "forbidden")
		logging.With(ctx, u.log).Warn().Err(err).Msg("webhook signature rejected")
		return nil, err
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		metrics.IncWebhook("", "bad_payload")
		return nil, domain.Validation("malformed webhook payload", err)
	}

	defer func() {
		event := env.Event
		if event != EventChargeSuccess && event != EventChargeFailed {
			event = "other"
		}
		if err != nil {
			metrics.IncWebhook(event, webhookErrLabel(err))
			return
		}
		metrics.IncWebhook(event, res.Outcome)
	}()

	switch env.Event {
	case EventChargeSuccess:
		d, err := parseWebhookData(env.Data)
		if err != nil {
			return nil, err
		}
		if d.Reference == "" {
			return nil, domain.Validation("missing transaction reference")
		}
		return u.withReferenceLock(ctx, env.Event, d.Reference, func(ctx context.Context) (*WebhookResult, error) {
			return u.reconcile(ctx, d.Reference, d.PaidAt, false)
		})

	case EventChargeFailed:
		d, err := parseWebhookData(env.Data)
		if err != nil {
			return nil, err
		}
		ref := d.Reference
		if ref == "" {
			ref = rawID(d.ID)
		}
		if ref == "" {
			return nil, domain.Validation("missing transaction reference")
		}
		return u.withReferenceLock(ctx, env.Event, ref, func(ctx context.Context) (*WebhookResult, error) {
			return u.markFailed(ctx, ref)
		})

	default:
		logging.With(ctx, u.log).Debug().Str("event", env.Event).Msg("webhook event ignored")
		return &WebhookResult{Event: env.Event, Outcome: OutcomeIgnored}, nil
	}
}

func (u *webhookUC) ReconcileReference(ctx context.Context, reference string) (*WebhookResult, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.ReconcileReference")()
	if reference == "" {
		return nil, domain.Validation("missing transaction reference")
	}
	return u.withReferenceLock(ctx, EventChargeSuccess, reference, func(ctx context.Context) (*WebhookResult, error) {
		return u.reconcile(ctx, reference, "", true)
	})
}

// withReferenceLock runs fn while holding the per-reference mutex.
func (u *webhookUC) withReferenceLock(ctx context.Context, event, reference string, fn func(ctx context.Context) (*WebhookResult, error)) (*WebhookResult, error) {
	ctx = logging.WithReference(ctx, reference)
	key := webhookLockKey(reference)

	token, err := u.locker.TryLock(ctx, key, u.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return nil, domain.Unavailable("transaction is being processed", err)
		}
		if domain.KindOf(err) == domain.KindUnavailable {
			return nil, err
		}
		return nil, domain.Unavailable("could not acquire transaction lock", err)
	}
	defer func() {
		if uerr := u.locker.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
			logging.With(ctx, u.log).Warn().Err(uerr).Msg("release webhook lock")
		}
	}()

	res, err := fn(ctx)
	if res != nil {
		res.Event = event
		res.Reference = reference
	}
	return res, err
}

// reconcile confirms reference with the provider and applies it.
// fallbackPaidAt is used when the provider omits paid_at. With closeFinal
// set, a closed provider status fails the payment instead of leaving it pending.
func (u *webhookUC) reconcile(ctx context.Context, reference, fallbackPaidAt string, closeFinal bool) (*WebhookResult, error) {
	log := logging.With(ctx, u.log)

	txn, err := u.provider.Verify(ctx, reference)
	if err != nil {
		log.Warn().Err(err).Msg("provider verify failed")
		if domain.KindOf(err) == domain.KindUnavailable {
			return nil, err
		}
		return nil, domain.Unavailable("payment verification failed", err)
	}
	if !strings.EqualFold(txn.Status, "success") {
		if closeFinal && model.ProviderStatusClosed(txn.Status) {
			log.Info().Str("provider_status", txn.Status).Msg("provider closed payment")
			return u.markFailed(ctx, reference)
		}
		log.Info().Str("provider_status", txn.Status).Msg("provider does not confirm payment")
		return &WebhookResult{Outcome: OutcomeNotSuccess}, nil
	}

	raw := txn.PaidAt
	if raw == "" {
		raw = fallbackPaidAt
	}
	paidAt, err := parsePaidAt(raw)
	if err != nil {
		return nil, err
	}

	var (
		outcome string
		payment *model.Payment
		expires time.Time
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByTransactionID(ctx, tx, reference)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("payment not found")
			}
			return err
		}
		if p.Verified {
			outcome = OutcomeDuplicate
			return nil
		}
		if txn.Amount > 0 && txn.Amount != model.MinorUnits(p.Amount) {
			return domain.Validation(fmt.Sprintf("amount mismatch: provider %d, expected %d", txn.Amount, model.MinorUnits(p.Amount)))
		}

		order, err := u.orders.FindByID(ctx, tx, p.OrderID)
		if err != nil {
			return err
		}
		plan := order.SubscriptionName
		if sub, err := u.subs.FindByID(ctx, tx, order.SubscriptionID); err == nil {
			plan = sub.Name
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		expires = plan.Expiration(paidAt)

		changed, err := u.payments.MarkVerifiedIfPending(ctx, tx, p.ID, paidAt, expires)
		if err != nil {
			return err
		}
		if !changed {
			outcome = OutcomeDuplicate
			return nil
		}
		removed, err := u.payments.DeleteSiblings(ctx, tx, order.ID, p.ID)
		if err != nil {
			return err
		}
		order.MarkPaid(expires)
		if err := u.orders.MarkPaid(ctx, tx, order.ID, order.EndDate); err != nil {
			return err
		}
		if err := u.users.MarkPaid(ctx, tx, order.UserID); err != nil {
			return err
		}

		log.Info().Str("payment_id", p.ID).Str("order_id", order.ID).Int64("siblings_removed", removed).
			Time("paid_at", paidAt).Time("expires_at", expires).Msg("payment verified")
		outcome = OutcomeApplied
		payment = p
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			log.Error().Err(err).Msg("reconcile payment")
		}
		return nil, err
	}

	if outcome == OutcomeApplied {
		metrics.IncPayment(string(model.PaymentStatusVerified))
		metrics.AddPaymentRevenue(string(payment.Currency), payment.Amount)
	} else {
		log.Info().Msg("payment already verified; delivery ignored")
	}
	return &WebhookResult{Outcome: outcome}, nil
}

func (u *webhookUC) markFailed(ctx context.Context, reference string) (*WebhookResult, error) {
	outcome := OutcomeDuplicate
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByTransactionID(ctx, tx, reference)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("payment not found")
			}
			return err
		}
		if p.Settled() {
			return nil
		}
		changed, err := u.payments.MarkFailed(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if changed {
			outcome = OutcomeFailed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome == OutcomeFailed {
		metrics.IncPayment(string(model.PaymentStatusFailed))
		logging.With(ctx, u.log).Info().Msg("payment marked failed")
	}
	return &WebhookResult{Outcome: outcome}, nil
}

func parseWebhookData(raw json.RawMessage) (*webhookData, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, domain.Validation("missing webhook data")
	}
	var d webhookData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, domain.Validation("malformed webhook data", err)
	}
	return &d, nil
}

// rawID renders a JSON id that may be a number or a string.
func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	return s
}

func parsePaidAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.Validation("missing paid_at")
	}
	for _, layout := range paidAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.Validation("invalid paid_at")
}

func webhookLockKey(reference string) string {
	return "webhook:txn:" + reference
}

func webhookErrLabel(err error) string {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return "bad_payload"
	case domain.KindNotFound:
		return "not_found"
	case domain.KindUnavailable:
		return "unavailable"
	case domain.KindForbidden:
		return "forbidden"
	}
	return "error"
}

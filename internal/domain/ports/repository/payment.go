package repository

import (
	"context"
	"time"

	"mockdata-subscription/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// FindByTransactionID locks the row when called inside a transaction.
	FindByTransactionID(ctx context.Context, tx Tx, transactionID string) (*model.Payment, error)
	// MarkVerifiedIfPending flips verified only when it is still false.
	// The bool reports whether this call performed the transition.
	MarkVerifiedIfPending(ctx context.Context, tx Tx, id string, paidAt, expiresAt time.Time) (bool, error)
	// MarkFailed records a provider failure unless the payment is already verified.
	MarkFailed(ctx context.Context, tx Tx, id string) (bool, error)
	// DeleteSiblings removes every payment of orderID except keepID.
	DeleteSiblings(ctx context.Context, tx Tx, orderID, keepID string) (int64, error)
	// ListStaleUnverified returns initiated payments created in [notBefore, olderThan), oldest first.
	ListStaleUnverified(ctx context.Context, tx Tx, olderThan, notBefore time.Time, limit int) ([]*model.Payment, error)
}

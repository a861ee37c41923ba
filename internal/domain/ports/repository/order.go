package repository

import (
	"context"
	"time"

	"mockdata-subscription/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

type OrderRepository interface {
	// LockOwner serialises order creation for userID until tx ends.
	LockOwner(ctx context.Context, tx Tx, userID string) error
	// Create inserts o; a second unpaid order for the same user yields domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindUnpaidByUser(ctx context.Context, tx Tx, userID string) (*model.Order, error)
	FindActiveByUser(ctx context.Context, tx Tx, userID string, now time.Time) (*model.Order, error)
	FindLatestByUser(ctx context.Context, tx Tx, userID string) (*model.Order, error)
	MarkPaid(ctx context.Context, tx Tx, id string, endDate time.Time) error
}

package repository

import (
	"context"

	"mockdata-subscription/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.User, error)
	// ExistsByUsernameOrEmail reports whether either identifier is taken.
	ExistsByUsernameOrEmail(ctx context.Context, tx Tx, username, email string) (bool, error)
	// MarkPaid sets is_paiduser=true. It never clears the flag.
	MarkPaid(ctx context.Context, tx Tx, id string) error
}

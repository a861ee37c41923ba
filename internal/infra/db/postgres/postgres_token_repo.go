package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/repository"
)

var _ repository.TokenRegistry = (*tokenRegistry)(nil)

type tokenRegistry struct{ pool *pgxpool.Pool }

// NewTokenRegistry checks candidate tokens against every column that stores one.
func NewTokenRegistry(pool *pgxpool.Pool) *tokenRegistry {
	return &tokenRegistry{pool: pool}
}

func (r *tokenRegistry) TokenExists(ctx context.Context, tx repository.Tx, token string) (bool, error) {
	const q = `
SELECT EXISTS (SELECT 1 FROM orders WHERE reference=$1)
    OR EXISTS (SELECT 1 FROM users WHERE slug=$1)
    OR EXISTS (SELECT 1 FROM payments WHERE transaction_id=$1);`
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, name, price::text, created_at`

// Save upserts by name so seeding the catalog twice keeps a single row per plan.
func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, name, price, created_at)
VALUES ($1, $2, $3::numeric, $4)
ON CONFLICT (name) DO UPDATE SET price=EXCLUDED.price
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, s.ID, string(s.Name), s.Price.StringFixed(2), s.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&s.ID); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return r.queryOne(ctx, tx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id=$1;`, id)
}

func (r *subscriptionRepo) FindByName(ctx context.Context, tx repository.Tx, name model.SubscriptionType) (*model.Subscription, error) {
	return r.queryOne(ctx, tx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE name=$1;`, string(name))
}

func (r *subscriptionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY price ASC;`)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row scanner) (*model.Subscription, error) {
	var (
		s     model.Subscription
		name  string
		price string
	)
	if err := row.Scan(&s.ID, &name, &price, &s.CreatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	s.Name = model.SubscriptionType(name)
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	s.Price = p
	return &s, nil
}

package postgres

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, user_id, reference, subscription_id, subscription_name, total_amount::text, paid, status, start_date, end_date, created_at, updated_at`

// LockOwner takes a transaction-scoped advisory lock keyed on the user.
// It only makes sense inside a transaction.
func (r *orderRepo) LockOwner(ctx context.Context, tx repository.Tx, userID string) error {
	if !isLocking(tx) {
		return domain.ErrInvalidExecContext
	}
	_, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64(userID))
	return mapWriteErr(err)
}

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, user_id, reference, subscription_id, subscription_name, total_amount, paid, status, start_date, end_date, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6::numeric,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.UserID, o.Reference, o.SubscriptionID, string(o.SubscriptionName), o.TotalAmount.StringFixed(2),
		o.Paid, string(o.Status), o.StartDate, o.EndDate, o.CreatedAt, o.UpdatedAt)
	return mapWriteErr(err)
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	if isLocking(tx) {
		q += " FOR UPDATE"
	}
	return r.queryOne(ctx, tx, q+";", id)
}

func (r *orderRepo) FindUnpaidByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 AND paid=FALSE ORDER BY created_at DESC LIMIT 1`
	if isLocking(tx) {
		q += " FOR UPDATE"
	}
	return r.queryOne(ctx, tx, q+";", userID)
}

func (r *orderRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 AND paid=TRUE AND end_date > $2 ORDER BY end_date DESC LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID, now)
}

func (r *orderRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *orderRepo) MarkPaid(ctx context.Context, tx repository.Tx, id string, endDate time.Time) error {
	const q = `UPDATE orders SET paid=TRUE, status=$2, end_date=$3, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(model.OrderStatusCompleted), endDate)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Order, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var (
		o      model.Order
		name   string
		total  string
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Reference, &o.SubscriptionID, &name, &total, &o.Paid, &status, &o.StartDate, &o.EndDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	amt, err := decimal.NewFromString(total)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	o.SubscriptionName = model.SubscriptionType(name)
	o.TotalAmount = amt
	o.Status = model.OrderStatus(status)
	return &o, nil
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

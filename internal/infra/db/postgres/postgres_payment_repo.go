package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, amount::text, currency, transaction_id, verified, status, timestamp, expiration_date, created_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, amount, currency, transaction_id, verified, status, timestamp, expiration_date, created_at
) VALUES ($1,$2,$3::numeric,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderID, p.Amount.StringFixed(2), string(p.Currency), p.TransactionID,
		p.Verified, string(p.Status), p.Timestamp, p.ExpirationDate, p.CreatedAt)
	return mapWriteErr(err)
}

func (r *paymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id=$1`
	if isLocking(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", transactionID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// MarkVerifiedIfPending is the compare-and-set that makes webhook redelivery a no-op.
func (r *paymentRepo) MarkVerifiedIfPending(ctx context.Context, tx repository.Tx, id string, paidAt, expiresAt time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET verified = TRUE,
       status = $2,
       timestamp = $3,
       expiration_date = $4
 WHERE id = $1
   AND verified = FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(model.PaymentStatusVerified), paidAt, expiresAt)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE payments SET status=$2 WHERE id=$1 AND verified=FALSE AND status<>$2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(model.PaymentStatusFailed))
	if err != nil {
		return false, mapWriteErr(err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) DeleteSiblings(ctx context.Context, tx repository.Tx, orderID, keepID string) (int64, error) {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM payments WHERE order_id=$1 AND id<>$2;`, orderID, keepID)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *paymentRepo) ListStaleUnverified(ctx context.Context, tx repository.Tx, olderThan, notBefore time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE verified=FALSE AND status=$1 AND created_at < $2 AND created_at >= $3 ORDER BY created_at ASC LIMIT $4;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(model.PaymentStatusInitiated), olderThan, notBefore, limit)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPayment(row scanner) (*model.Payment, error) {
	var (
		p        model.Payment
		amount   string
		currency string
		status   string
	)
	if err := row.Scan(&p.ID, &p.OrderID, &amount, &currency, &p.TransactionID, &p.Verified, &status, &p.Timestamp, &p.ExpirationDate, &p.CreatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	p.Amount = amt
	p.Currency = model.Currency(currency)
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

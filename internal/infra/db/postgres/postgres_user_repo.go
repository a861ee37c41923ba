package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, username, email, first_name, last_name, slug, password_hash, is_paiduser, is_active, date_joined`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  username=$2, email=$3, first_name=$4, last_name=$5, slug=$6, password_hash=$7,
  is_paiduser=users.is_paiduser OR $8, is_active=$9;`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Slug, u.PasswordHash, u.IsPaidUser, u.IsActive, u.DateJoined)
	return mapWriteErr(err)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	return r.queryOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *PostgresUserRepo) ExistsByUsernameOrEmail(ctx context.Context, tx repository.Tx, username, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username=$1 OR email=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, username, email)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *PostgresUserRepo) MarkPaid(ctx context.Context, tx repository.Tx, id string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `UPDATE users SET is_paiduser=TRUE WHERE id=$1;`, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Slug, &u.PasswordHash, &u.IsPaidUser, &u.IsActive, &u.DateJoined); err != nil {
		return nil, mapScanErr(err)
	}
	return &u, nil
}

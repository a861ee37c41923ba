package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside a database transaction, passing the
// underlying handle via tx. The concrete type of tx is infra-defined (pgx.Tx
// for Postgres); repositories must accept a nil tx (non-transactional path)
// and may add row locks (SELECT ... FOR UPDATE) when they see a real one.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

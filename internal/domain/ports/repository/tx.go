package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories accept nil to mean "use the pool".
type Tx interface{}

// NoTX selects the non-transactional path.
var NoTX Tx

// TransactionManager runs fn inside a database transaction and hands the
// transaction to fn as tx. A non-nil error from fn rolls the transaction back.
//
//	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		sn, err := serials.FindByCodeForUpdate(ctx, tx, code)
//		...
//		return serials.MarkUsed(ctx, tx, sn)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Keeps use-case interfaces clean (no transaction types leaking out) while
// letting repository methods that accept `tx Tx` run SELECT ... FOR UPDATE
// and tx-bound Exec/Query as needed. Repositories accept NoTX for the
// non-transactional path.
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

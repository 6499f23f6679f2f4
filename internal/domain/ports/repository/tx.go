package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Its concrete type is infra-defined
// (pgx.Tx for Postgres); repositories must gracefully accept nil for the
// non-transactional path.
type Tx interface{}

// NoTX marks an explicitly non-transactional call.
var NoTX Tx

// TransactionManager executes a function inside a database transaction,
// passing the handle through `tx`. Keeping the handle opaque keeps the
// use-case layer free of storage types while still letting a single
// subscription's invoice-insert and schedule-update commit atomically.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

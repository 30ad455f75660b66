package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository methods.
// Its concrete type is infra-defined (pgx.Tx for Postgres); repositories must
// accept nil and fall back to their non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one database transaction, handing it the
// tx handle to pass along to repository calls. Use it wherever a status write
// and a data write must land together, like appending schedule items and
// completing the file.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

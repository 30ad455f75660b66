package postgres

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/repository"
)

// execSQL runs a statement on the right executor: the given tx when present,
// the pool otherwise.
func execSQL(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Exec(ctx, sql, args...)
}

// pickRow fetches a single row and reports domain.ErrNotFound before Scan,
// so callers can branch on "no row" without driver error translation.
func pickRow(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgx.Row, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	return &firstRow{rows: rows}, nil
}

// firstRow adapts pgx.Rows to the single-row Scan shape. Scan closes the
// underlying rows, so each pickRow result is scanned exactly once.
type firstRow struct {
	rows pgx.Rows
}

func (r *firstRow) Scan(dest ...interface{}) error {
	defer r.rows.Close()
	if err := r.rows.Scan(dest...); err != nil {
		return err
	}
	return r.rows.Err()
}

package postgres

import (
	"context"
	"time"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.ScheduleItemRepository = (*scheduleItemRepo)(nil)

type scheduleItemRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleItemRepo(pool *pgxpool.Pool) *scheduleItemRepo {
	return &scheduleItemRepo{pool: pool}
}

// AppendForFile stamps ownership onto the batch and persists it. Items of an
// earlier run for the same file are replaced in the same transaction, so the
// stored rows always mirror the latest successful extraction.
func (r *scheduleItemRepo) AppendForFile(ctx context.Context, tx repository.Tx, fileID, userID string, items []*model.ScheduleItem) error {
	if fileID == "" || userID == "" {
		return domain.ErrInvalidArgument
	}

	if _, err := execSQL(ctx, r.pool, tx, `DELETE FROM schedule_items WHERE file_id = $1`, fileID); err != nil {
		return err
	}

	const q = `
INSERT INTO schedule_items (id, file_id, user_id, description, due_date, location, source_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.FileID = fileID
		it.UserID = userID
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if _, err := execSQL(ctx, r.pool, tx, q,
			it.ID, it.FileID, it.UserID, it.Description, it.DueDate, it.Location, it.SourceName, it.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *scheduleItemRepo) ListByFile(ctx context.Context, tx repository.Tx, fileID string) ([]*model.ScheduleItem, error) {
	const q = `
SELECT id, file_id, user_id, description, to_char(due_date, 'YYYY-MM-DD'), location, source_name, created_at
FROM schedule_items
WHERE file_id = $1
ORDER BY due_date NULLS LAST, created_at`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ScheduleItem
	for rows.Next() {
		var it model.ScheduleItem
		if err := rows.Scan(&it.ID, &it.FileID, &it.UserID, &it.Description, &it.DueDate, &it.Location, &it.SourceName, &it.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

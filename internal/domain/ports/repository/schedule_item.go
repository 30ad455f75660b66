package repository

import (
	"context"

	"schedule-ai-ingestion/internal/domain/model"
)

type ScheduleItemRepository interface {
	// AppendForFile persists every item in one transaction, stamping file and
	// owner IDs. All or nothing; a partial write never survives.
	AppendForFile(ctx context.Context, tx Tx, fileID, userID string, items []*model.ScheduleItem) error
	ListByFile(ctx context.Context, tx Tx, fileID string) ([]*model.ScheduleItem, error)
}

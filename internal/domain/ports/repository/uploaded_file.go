package repository

import (
	"context"
	"time"

	"schedule-ai-ingestion/internal/domain/model"
)

type UploadedFileRepository interface {
	Save(ctx context.Context, tx Tx, f *model.UploadedFile) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UploadedFile, error)
	// FetchAndMarkProcessing atomically claims one pending file and marks it
	// processing, so concurrent workers never pick up the same file.
	FetchAndMarkProcessing(ctx context.Context) (*model.UploadedFile, error)
	// UpdateStatus writes the new status. The write is conditional on the
	// current row permitting the transition, so a terminal status can never
	// regress even under concurrent runs. A lost claim race surfaces
	// domain.ErrRunInFlight. processingError is stored verbatim and should be
	// empty for every status except failed.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.ProcessingStatus, processingError string) error
	// UpdateExtractedText persists the normalized text. The text survives any
	// later failure; only a newer successful extraction overwrites it.
	UpdateExtractedText(ctx context.Context, tx Tx, id string, text string) error
	// Requeue resets a terminal file to pending and clears its processing
	// error so a fresh run can claim it.
	Requeue(ctx context.Context, tx Tx, id string) error
	// MarkStaleFailed fails every file that has sat in processing or
	// text_extracted since before cutoff. Those rows belong to runs whose
	// worker died mid-flight; nothing else would ever touch them again.
	// Returns the number of files failed.
	MarkStaleFailed(ctx context.Context, cutoff time.Time, reason string) (int, error)
	// CountByStatus reports how many files sit in each status right now.
	CountByStatus(ctx context.Context) (map[model.ProcessingStatus]int64, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.UploadedFileRepository = (*uploadedFileRepo)(nil)

type uploadedFileRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewUploadedFileRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *uploadedFileRepo {
	return &uploadedFileRepo{
		pool: pool,
		tm:   tm,
	}
}

func (r *uploadedFileRepo) Save(ctx context.Context, tx repository.Tx, f *model.UploadedFile) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = model.StatusPending
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	f.UpdatedAt = time.Now()

	// Status and pipeline output move only through UpdateStatus,
	// UpdateExtractedText and Requeue; a re-Save never overwrites them.
	const q = `
INSERT INTO uploaded_files (id, user_id, original_name, storage_location, size_bytes, content_type, status, processing_error, extracted_text, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, '', '', $8, $9)
ON CONFLICT (id) DO UPDATE SET
  original_name = EXCLUDED.original_name,
  storage_location = EXCLUDED.storage_location,
  size_bytes = EXCLUDED.size_bytes,
  content_type = EXCLUDED.content_type,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		f.ID, f.UserID, f.OriginalName, f.StorageLocation, f.SizeBytes, f.ContentType, string(f.Status), f.CreatedAt, f.UpdatedAt)
	return err
}

func (r *uploadedFileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UploadedFile, error) {
	const q = `
SELECT id, user_id, original_name, storage_location, size_bytes, content_type,
       status, processing_error, extracted_text, created_at, updated_at
FROM uploaded_files
WHERE id = $1`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUploadedFile(row)
}

func (r *uploadedFileRepo) FetchAndMarkProcessing(ctx context.Context) (*model.UploadedFile, error) {
	var file *model.UploadedFile

	// Use the TransactionManager to handle Begin/Commit/Rollback automatically.
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT id, user_id, original_name, storage_location, size_bytes, content_type,
       status, processing_error, extracted_text, created_at, updated_at
FROM uploaded_files
WHERE status = 'pending'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err // includes domain.ErrNotFound when nothing is pending
		}
		f, err := scanUploadedFile(row)
		if err != nil {
			return err
		}

		// Mark the file as processing so no one else picks it up
		const claim = `UPDATE uploaded_files SET status = 'processing', updated_at = NOW() WHERE id = $1`
		if _, err := execSQL(ctx, r.pool, tx, claim, f.ID); err != nil {
			return err
		}
		f.Status = model.StatusProcessing

		file = f
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// UpdateStatus writes the new status atomically, guarded by the legal
// transitions into it. A row in the wrong state is left untouched and the
// caller learns who won the race.
func (r *uploadedFileRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.ProcessingStatus, processingError string) error {
	froms := allowedFrom(status)
	if len(froms) == 0 {
		return fmt.Errorf("%w: no transition enters status %s", domain.ErrInvalidArgument, status)
	}

	const q = `
UPDATE uploaded_files
   SET status = $2,
       processing_error = $3,
       updated_at = NOW()
 WHERE id = $1
   AND status = ANY($4)`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), processingError, froms)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() >= 1 {
		return nil
	}
	cur, err := r.currentStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: file %s is %s, cannot enter %s", domain.ErrRunInFlight, id, cur, status)
}

func (r *uploadedFileRepo) UpdateExtractedText(ctx context.Context, tx repository.Tx, id string, text string) error {
	const q = `UPDATE uploaded_files SET extracted_text = $2, updated_at = NOW() WHERE id = $1`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, text)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Requeue resets a terminal file to pending. Extracted text is kept; the
// fresh run overwrites it on success.
func (r *uploadedFileRepo) Requeue(ctx context.Context, tx repository.Tx, id string) error {
	const q = `
UPDATE uploaded_files
   SET status = 'pending',
       processing_error = '',
       updated_at = NOW()
 WHERE id = $1
   AND status IN ('completed','failed')`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() >= 1 {
		return nil
	}
	cur, err := r.currentStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: requeue needs a terminal status, file %s is %s", domain.ErrInvalidArgument, id, cur)
}

// MarkStaleFailed sweeps orphaned in-flight rows. Both target statuses may
// legally enter failed, so the forward state machine holds even if a live run
// loses this race; its next conditional write simply finds the row failed.
func (r *uploadedFileRepo) MarkStaleFailed(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	const q = `
UPDATE uploaded_files
   SET status = 'failed',
       processing_error = $2,
       updated_at = NOW()
 WHERE status IN ('processing','text_extracted')
   AND updated_at < $1`

	cmd, err := execSQL(ctx, r.pool, repository.NoTX, q, cutoff, reason)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *uploadedFileRepo) CountByStatus(ctx context.Context) (map[model.ProcessingStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM uploaded_files GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ProcessingStatus]int64)
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.ProcessingStatus(s)] = n
	}
	return counts, rows.Err()
}

func (r *uploadedFileRepo) currentStatus(ctx context.Context, tx repository.Tx, id string) (model.ProcessingStatus, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT status FROM uploaded_files WHERE id = $1`, id)
	if err != nil {
		return "", err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return "", domain.ErrReadDatabaseRow
	}
	return model.ProcessingStatus(s), nil
}

// allowedFrom lists the statuses a row may hold for the transition into next
// to be legal. Keep in sync with model.ProcessingStatus.CanTransition.
func allowedFrom(next model.ProcessingStatus) []string {
	switch next {
	case model.StatusProcessing:
		return []string{string(model.StatusPending)}
	case model.StatusTextExtracted:
		return []string{string(model.StatusProcessing)}
	case model.StatusCompleted:
		return []string{string(model.StatusTextExtracted)}
	case model.StatusFailed:
		return []string{string(model.StatusProcessing), string(model.StatusTextExtracted)}
	default:
		return nil
	}
}

func scanUploadedFile(row pgx.Row) (*model.UploadedFile, error) {
	var f model.UploadedFile
	var statusStr string
	err := row.Scan(
		&f.ID, &f.UserID, &f.OriginalName, &f.StorageLocation, &f.SizeBytes, &f.ContentType,
		&statusStr, &f.ProcessingError, &f.ExtractedText, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	f.Status = model.ProcessingStatus(statusStr)
	return &f, nil
}

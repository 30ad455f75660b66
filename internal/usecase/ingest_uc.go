package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
	"schedule-ai-ingestion/internal/domain/ports/repository"
	"schedule-ai-ingestion/internal/infra/logging"
	"schedule-ai-ingestion/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ IngestionUseCase = (*ingestionUC)(nil)

// IngestionUseCase drives one uploaded file through the whole pipeline:
// extract text, normalize, persist, ask the model for schedule items, store
// them. Every status transition is written through the repository before the
// next stage runs, so an observer polling the file always sees the truth.
type IngestionUseCase interface {
	Run(ctx context.Context, file *model.UploadedFile) error
}

type ingestionUC struct {
	files     repository.UploadedFileRepository
	items     repository.ScheduleItemRepository
	tm        repository.TransactionManager
	store     adapter.FileStore
	router    adapter.FormatRouter
	extractor ScheduleExtractor
	log       *zerolog.Logger
}

func NewIngestionUseCase(
	files repository.UploadedFileRepository,
	items repository.ScheduleItemRepository,
	tm repository.TransactionManager,
	store adapter.FileStore,
	router adapter.FormatRouter,
	extractor ScheduleExtractor,
	logger *zerolog.Logger,
) (*ingestionUC, error) {
	if files == nil || items == nil || tm == nil || store == nil || router == nil || extractor == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &ingestionUC{
		files:     files,
		items:     items,
		tm:        tm,
		store:     store,
		router:    router,
		extractor: extractor,
		log:       logger,
	}, nil
}

func (p *ingestionUC) Run(ctx context.Context, file *model.UploadedFile) error {
	if file == nil {
		return domain.ErrInvalidArgument
	}
	runID := ulid.Make().String()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithFileID(ctx, file.ID)
	ctx = logging.WithUserID(ctx, file.UserID)
	rlog := logging.With(ctx, p.log)
	defer logging.TraceDuration(rlog, "IngestionUC.Run")()

	// A file handed in straight from Dispatch is still pending; one claimed
	// by the processor was already marked processing by the same write that
	// claimed it.
	if file.Status == model.StatusPending {
		if err := p.advance(ctx, file, model.StatusProcessing); err != nil {
			if errors.Is(err, domain.ErrRunInFlight) {
				rlog.Debug().Msg("another run already claimed the file")
				return nil
			}
			rlog.Error().Err(err).Msg("could not mark processing")
			return err
		}
	}
	if file.Status != model.StatusProcessing {
		return fmt.Errorf("%w: file %s is %s, not runnable", domain.ErrInvalidArgument, file.ID, file.Status)
	}

	start := time.Now()
	data, err := p.store.Load(ctx, file.StorageLocation)
	if err != nil {
		return p.fail(ctx, rlog, file, fmt.Errorf("load stored file: %w", err))
	}
	strategy, err := p.router.Select(file.ContentType)
	if err != nil {
		return p.fail(ctx, rlog, file, err)
	}
	text, err := strategy.Extract(ctx, data)
	if err != nil {
		return p.fail(ctx, rlog, file, err)
	}
	metrics.ObserveStage("extract_text", time.Since(start).Milliseconds())

	normalized := NormalizeText(text)
	if err := p.files.UpdateExtractedText(ctx, repository.NoTX, file.ID, normalized); err != nil {
		serr := &domain.StorageError{Op: "persist extracted text", Err: err}
		rlog.Error().Err(serr).Msg("aborting run")
		return serr
	}
	file.ExtractedText = normalized
	if err := p.advance(ctx, file, model.StatusTextExtracted); err != nil {
		rlog.Error().Err(err).Msg("aborting run")
		return err
	}
	rlog.Info().Str("family", string(strategy.Family())).Int("chars", len(normalized)).Msg("text extracted")

	// Empty text still goes to the model; an empty document legitimately
	// completes with zero items.
	start = time.Now()
	items, err := p.extractor.Extract(ctx, normalized, p.sourceLabel(file))
	metrics.ObserveStage("ai_extract", time.Since(start).Milliseconds())
	if err != nil {
		return p.fail(ctx, rlog, file, err)
	}

	// Items and the completed status land in one transaction; a torn write
	// must never leave completed files without their items.
	err = p.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := p.items.AppendForFile(ctx, tx, file.ID, file.UserID, items); err != nil {
			return err
		}
		return p.files.UpdateStatus(ctx, tx, file.ID, model.StatusCompleted, "")
	})
	if err != nil {
		serr := &domain.StorageError{Op: "persist schedule items", Err: err}
		rlog.Error().Err(serr).Msg("aborting run")
		return serr
	}
	file.Status = model.StatusCompleted
	metrics.IncFileProcessed(string(model.StatusCompleted))
	metrics.AddItemsExtracted(len(items))
	rlog.Info().Int("items", len(items)).Msg("ingestion completed")
	return nil
}

func (p *ingestionUC) advance(ctx context.Context, f *model.UploadedFile, next model.ProcessingStatus) error {
	if !f.Status.CanTransition(next) {
		return fmt.Errorf("%w: illegal transition %s -> %s for file %s", domain.ErrInvalidArgument, f.Status, next, f.ID)
	}
	if err := p.files.UpdateStatus(ctx, repository.NoTX, f.ID, next, ""); err != nil {
		return &domain.StorageError{Op: "update status", Err: err}
	}
	f.Status = next
	return nil
}

// fail records the terminal failure. When the process itself is going down
// the durable status is left as-is; a later requeue picks the file up again.
func (p *ingestionUC) fail(ctx context.Context, rlog *zerolog.Logger, f *model.UploadedFile, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	if !f.Status.CanTransition(model.StatusFailed) {
		return cause
	}
	if err := p.files.UpdateStatus(ctx, repository.NoTX, f.ID, model.StatusFailed, cause.Error()); err != nil {
		serr := &domain.StorageError{Op: "mark failed", Err: err}
		rlog.Error().Err(serr).Msg("could not persist failure")
		return serr
	}
	f.Status = model.StatusFailed
	f.ProcessingError = cause.Error()
	metrics.IncFileProcessed(string(model.StatusFailed))
	rlog.Error().Err(cause).Msg("ingestion failed")
	return cause
}

func (p *ingestionUC) sourceLabel(f *model.UploadedFile) string {
	if strings.TrimSpace(f.OriginalName) != "" {
		return f.OriginalName
	}
	return f.ID
}

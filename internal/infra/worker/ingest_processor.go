package worker

import (
	"context"
	"time"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/repository"
	"schedule-ai-ingestion/internal/infra/redis"
	"schedule-ai-ingestion/internal/usecase"

	"github.com/rs/zerolog"
)

const runLockPrefix = "ingest:run:"

// IngestProcessor feeds the ingestion pipeline. It polls the repository for
// pending files and also accepts direct hand-offs from the intake path, so a
// fresh upload starts without waiting for the next tick.
type IngestProcessor struct {
	files    repository.UploadedFileRepository
	pipeline usecase.IngestionUseCase
	guard    redis.Locker
	lockTTL  time.Duration
	poll     time.Duration
	pool     *Pool
	log      *zerolog.Logger
}

func NewIngestProcessor(
	files repository.UploadedFileRepository,
	pipeline usecase.IngestionUseCase,
	guard redis.Locker, // nil disables the cross-instance run guard
	lockTTL time.Duration,
	poll time.Duration,
	log *zerolog.Logger,
) *IngestProcessor {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &IngestProcessor{
		files:    files,
		pipeline: pipeline,
		guard:    guard,
		lockTTL:  lockTTL,
		poll:     poll,
		log:      log,
	}
}

// Start runs a loop that claims pending files and hands them to the pool.
// This should be run in a goroutine.
func (p *IngestProcessor) Start(ctx context.Context, pool *Pool) {
	p.pool = pool
	p.log.Info().Msg("Ingest Processor started")
	ticker := time.NewTicker(p.poll) // Poll for pending files
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("Ingest Processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.processOne(ctx)
				return nil
			})
		}
	}
}

func (p *IngestProcessor) processOne(ctx context.Context) {
	// The claim write marks the file processing; exclusivity against other
	// workers comes from the repository, not from the run guard.
	file, err := p.files.FetchAndMarkProcessing(ctx)
	if err != nil {
		if err != domain.ErrNotFound {
			p.log.Error().Err(err).Msg("Failed to claim pending file")
		}
		return // No pending file, or an error occurred
	}
	p.run(ctx, file)
}

// Dispatch hands a freshly saved pending file to the pool without waiting for
// the next poll tick. Callers observe progress through the file's status, not
// through a return value; if the queue is full the poller claims the file on
// a later tick.
func (p *IngestProcessor) Dispatch(file *model.UploadedFile) {
	if file == nil {
		return
	}
	if p.pool == nil {
		p.log.Warn().Str("file_id", file.ID).Msg("Dispatch before Start, poller will claim the file")
		return
	}
	if err := p.pool.Submit(func(ctx context.Context) error {
		p.runGuarded(ctx, file)
		return nil
	}); err != nil {
		p.log.Warn().Err(err).Str("file_id", file.ID).Msg("Dispatch dropped, poller will claim the file")
	}
}

// runGuarded takes the cross-instance run guard before touching the file.
// A held guard means another instance is already on it; the file is still
// pending, so the regular poll claims it once the guard clears.
func (p *IngestProcessor) runGuarded(ctx context.Context, file *model.UploadedFile) {
	if p.guard != nil {
		key := runLockPrefix + file.ID
		token, err := p.guard.TryLock(ctx, key, p.lockTTL)
		if err != nil {
			p.log.Debug().Err(err).Str("file_id", file.ID).Msg("run guard held, skipping")
			return
		}
		defer func() {
			if uerr := p.guard.Unlock(context.Background(), key, token); uerr != nil {
				p.log.Warn().Err(uerr).Str("file_id", file.ID).Msg("could not release run guard")
			}
		}()
	}
	p.run(ctx, file)
}

func (p *IngestProcessor) run(ctx context.Context, file *model.UploadedFile) {
	start := time.Now()
	if err := p.pipeline.Run(ctx, file); err != nil {
		p.log.Error().Err(err).Str("file_id", file.ID).Dur("duration_ms", time.Since(start)).Msg("Ingestion run finished with error")
		return
	}
	p.log.Info().Str("file_id", file.ID).Str("status", string(file.Status)).Dur("duration_ms", time.Since(start)).Msg("Ingestion run finished")
}

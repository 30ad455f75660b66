package sched

import (
	"context"
	"time"

	"schedule-ai-ingestion/internal/domain/ports/repository"
	"schedule-ai-ingestion/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// StaleReaper periodically fails files stuck in an in-flight status. A worker
// that dies mid-run leaves its file in processing or text_extracted, and no
// claim query ever looks at those again; the reaper turns them into ordinary
// failures that an operator can requeue.
type StaleReaper struct {
	interval   time.Duration
	staleAfter time.Duration
	files      repository.UploadedFileRepository
	log        *zerolog.Logger
}

func NewStaleReaper(interval, staleAfter time.Duration, files repository.UploadedFileRepository, logger *zerolog.Logger) *StaleReaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	rlog := logger.With().Str("component", "StaleReaper").Logger()
	return &StaleReaper{
		interval:   interval,
		staleAfter: staleAfter,
		files:      files,
		log:        &rlog,
	}
}

func (w *StaleReaper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("Starting stale reaper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stale reaper")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-w.staleAfter)
			n, err := w.files.MarkStaleFailed(ctx, cutoff, "processing timed out")
			if err != nil {
				w.log.Error().Err(err).Msg("stale reaper error")
				continue
			}
			if n > 0 {
				metrics.IncFilesReaped(n)
				w.log.Warn().Int("count", n).Msg("stale in-flight files failed")
			}
		}
	}
}

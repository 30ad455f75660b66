// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schedule-ai-ingestion/internal/config"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
	aiAdapters "schedule-ai-ingestion/internal/infra/adapters/ai"
	"schedule-ai-ingestion/internal/infra/adapters/extract"
	pg "schedule-ai-ingestion/internal/infra/db/postgres"
	httpapi "schedule-ai-ingestion/internal/infra/http"
	"schedule-ai-ingestion/internal/infra/logging"
	"schedule-ai-ingestion/internal/infra/metrics"
	red "schedule-ai-ingestion/internal/infra/redis"
	"schedule-ai-ingestion/internal/infra/sched"
	"schedule-ai-ingestion/internal/infra/storage"
	"schedule-ai-ingestion/internal/infra/worker"
	"schedule-ai-ingestion/internal/usecase"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	// -config and -dev are registered inside config.LoadConfig.
	requeueID := flag.String("requeue", "", "reset a terminal file to pending, then exit")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logging ----
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool := pg.MustConnectPostgres(&cfg.Database)
	defer pool.Close()
	tm := pg.NewTxManager(pool)
	fileRepo := pg.NewUploadedFileRepo(pool, tm)
	itemRepo := pg.NewScheduleItemRepo(pool)

	// ---- Maintenance mode: requeue one file and exit ----
	if *requeueID != "" {
		if err := fileRepo.Requeue(ctx, nil, *requeueID); err != nil {
			log.Fatalf("requeue %s: %v", *requeueID, err)
		}
		logger.Info().Str("file_id", *requeueID).Msg("file requeued")
		return
	}

	// ---- Redis run guard (optional) ----
	var (
		locker red.Locker
		cache  red.RedisClient
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
		cache = redisClient
	} else {
		logger.Warn().Msg("redis.url empty, cross-instance run guard disabled")
	}

	// ---- File store ----
	store, err := storage.NewLocalStore(cfg.Ingest.StorageRoot)
	if err != nil {
		log.Fatalf("file store: %v", err)
	}

	// ---- Extraction strategies ----
	router, err := extract.NewRouter(
		extract.NewSpreadsheetStrategy(),
		extract.NewDocumentStrategy(),
		extract.NewPDFStrategy(logger),
		extract.NewPlainTextStrategy(),
		extract.NewImageOCRStrategy(nil, cfg.Ingest.TesseractPath, cfg.Ingest.OCRLanguage, logger),
	)
	if err != nil {
		log.Fatalf("format router: %v", err)
	}

	// ---- AI adapters (gateway -> Gemini -> OpenAI) ----
	providers := map[string]adapter.CompletionAdapter{}
	if cfg.AI.GatewayKey != "" && cfg.AI.GatewayBaseURL != "" {
		gw, err := aiAdapters.NewGatewayAdapter(cfg.AI.GatewayKey, cfg.AI.GatewayBaseURL)
		if err != nil {
			log.Fatalf("gateway adapter: %v", err)
		}
		providers["gateway"] = gw
		logger.Info().Str("base", cfg.AI.GatewayBaseURL).Msg("AI provider: OpenAI-compatible gateway")
	}
	if cfg.AI.GeminiKey != "" {
		gm, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.DefaultModel, 0)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		providers["gemini"] = gm
		logger.Info().Msg("AI provider: Gemini")
	}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		providers["openai"] = oa
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI provider: OpenAI")
	}
	if len(providers) == 0 {
		if !cfg.Runtime.Dev {
			log.Fatalf("no AI provider configured: set ai.gateway_key, ai.gemini_key or ai.openai_key")
		}
		providers["noop"] = aiAdapters.NewNoopAIAdapter()
		logger.Warn().Msg("no AI provider configured, using noop adapter (dev mode)")
	}
	var ai adapter.CompletionAdapter = aiAdapters.NewMultiAIAdapter("", providers, nil)
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	prompts, err := usecase.NewPromptBuilder(cfg.AI.DefaultModel, cfg.Ingest.MaxTextTokens)
	if err != nil {
		log.Fatalf("prompt builder: %v", err)
	}
	extractor, err := usecase.NewScheduleExtractorUseCase(ai, prompts, cfg.AI.DefaultModel, cfg.Ingest.MaxAttempts, cfg.Ingest.BaseDelay, logger)
	if err != nil {
		log.Fatalf("schedule extractor: %v", err)
	}
	pipeline, err := usecase.NewIngestionUseCase(fileRepo, itemRepo, tm, store, router, extractor, logger)
	if err != nil {
		log.Fatalf("ingestion pipeline: %v", err)
	}

	// ---- Workers ----
	wp := worker.NewPool(cfg.Ingest.Workers, logger)
	wp.Start(ctx)
	processor := worker.NewIngestProcessor(fileRepo, pipeline, locker, cfg.Ingest.RunLockTTL, cfg.Ingest.PollInterval, logger)
	go processor.Start(ctx, wp)

	reaper := sched.NewStaleReaper(cfg.Ingest.ReapInterval, cfg.Ingest.StaleAfter, fileRepo, logger)
	go func() { _ = reaper.Run(ctx) }()

	// ---- Periodic gauges ----
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		statuses := []model.ProcessingStatus{
			model.StatusPending,
			model.StatusProcessing,
			model.StatusTextExtracted,
			model.StatusCompleted,
			model.StatusFailed,
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
				metrics.SetWorkerQueueDepth(wp.Queued())
				counts, err := fileRepo.CountByStatus(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("count files by status")
					continue
				}
				for _, s := range statuses {
					metrics.SetFilesByStatus(string(s), counts[s])
				}
			}
		}
	}()

	// ---- Ops HTTP server ----
	srv := httpapi.NewServer(cfg, pool, cache, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops HTTP server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	wp.Stop()
}

// File: cmd/extract/main.go
//
// One-shot extraction runner for local debugging: feed it a file and a
// declared content type, get the extracted schedule items as JSON on stdout.
// With -dry-run it stops after text extraction and prints the normalized
// text instead, without touching any model.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"schedule-ai-ingestion/internal/config"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
	aiAdapters "schedule-ai-ingestion/internal/infra/adapters/ai"
	"schedule-ai-ingestion/internal/infra/adapters/extract"
	"schedule-ai-ingestion/internal/infra/logging"
	"schedule-ai-ingestion/internal/usecase"
)

func main() {
	filePath := flag.String("file", "", "path to the document to extract")
	contentType := flag.String("type", "", "declared content type, e.g. application/pdf")
	dryRun := flag.Bool("dry-run", false, "stop after text extraction, print normalized text")
	model := flag.String("model", "", "completion model (default from config defaults)")
	lang := flag.String("lang", "", "tesseract language for image OCR")
	flag.Parse()

	if *filePath == "" || *contentType == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Defaults only; this tool reads no config file.
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	if *model != "" {
		cfg.AI.DefaultModel = *model
	}
	if *lang != "" {
		cfg.Ingest.OCRLanguage = *lang
	}

	logger := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)
	ctx := context.Background()

	// 1. Read the document
	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("read %s: %v", *filePath, err)
	}

	// 2. Route by the declared type and extract text
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
	strategy, err := router.Select(*contentType)
	if err != nil {
		log.Fatalf("route %q: %v", *contentType, err)
	}
	text, err := strategy.Extract(ctx, data)
	if err != nil {
		log.Fatalf("extract: %v", err)
	}
	normalized := usecase.NormalizeText(text)
	logger.Info().Str("family", string(strategy.Family())).Int("chars", len(normalized)).Msg("text extracted")

	if *dryRun {
		fmt.Println(normalized)
		return
	}

	// 3. Pick a provider from the environment
	var ai adapter.CompletionAdapter
	switch {
	case os.Getenv("AI_GATEWAY_KEY") != "" && os.Getenv("AI_GATEWAY_BASE_URL") != "":
		ai, err = aiAdapters.NewGatewayAdapter(os.Getenv("AI_GATEWAY_KEY"), os.Getenv("AI_GATEWAY_BASE_URL"))
	case os.Getenv("GEMINI_API_KEY") != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, os.Getenv("GEMINI_API_KEY"), cfg.AI.DefaultModel, 0)
	case os.Getenv("OPENAI_API_KEY") != "":
		ai, err = aiAdapters.NewOpenAIAdapter(os.Getenv("OPENAI_API_KEY"), cfg.AI.DefaultModel)
	default:
		log.Fatalf("no provider configured: export OPENAI_API_KEY, GEMINI_API_KEY or AI_GATEWAY_KEY+AI_GATEWAY_BASE_URL, or pass -dry-run")
	}
	if err != nil {
		log.Fatalf("provider: %v", err)
	}

	// 4. Ask the model and validate
	prompts, err := usecase.NewPromptBuilder(cfg.AI.DefaultModel, cfg.Ingest.MaxTextTokens)
	if err != nil {
		log.Fatalf("prompt builder: %v", err)
	}
	extractor, err := usecase.NewScheduleExtractorUseCase(ai, prompts, cfg.AI.DefaultModel, cfg.Ingest.MaxAttempts, cfg.Ingest.BaseDelay, logger)
	if err != nil {
		log.Fatalf("schedule extractor: %v", err)
	}
	items, err := extractor.Extract(ctx, normalized, filepath.Base(*filePath))
	if err != nil {
		log.Fatalf("schedule extraction: %v", err)
	}

	// 5. Print the items the way the capability returns them
	type itemOut struct {
		Assignment string  `json:"assignment"`
		DueDate    *string `json:"due_date"`
		Location   *string `json:"location"`
		Source     string  `json:"source"`
	}
	out := make([]itemOut, 0, len(items))
	for _, it := range items {
		out = append(out, itemOut{
			Assignment: it.Description,
			DueDate:    it.DueDate,
			Location:   it.Location,
			Source:     it.SourceName,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

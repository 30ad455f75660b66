package adapter

import (
	"context"

	"schedule-ai-ingestion/internal/domain"
)

// TextExtractor turns the raw bytes of one stored file into plain text.
// Implementations exist for a fixed set of strategy families; any failure is
// wrapped as *domain.ExtractionError and is fatal for the run.
type TextExtractor interface {
	Family() domain.StrategyFamily
	Extract(ctx context.Context, data []byte) (string, error)
}

// FormatRouter resolves a declared content type to its extraction strategy.
// The mapping is a fixed table over exact strings; unknown types fail with
// domain.ErrUnsupportedType before any strategy runs.
type FormatRouter interface {
	Select(contentType string) (TextExtractor, error)
}

package extract

import (
	"context"
	"errors"
	"unicode/utf8"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TextExtractor = (*PlainTextStrategy)(nil)

// PlainTextStrategy passes the stored bytes through untouched. It only
// refuses payloads that are not valid UTF-8, which catches binaries uploaded
// under a text/* declaration.
type PlainTextStrategy struct{}

func NewPlainTextStrategy() *PlainTextStrategy { return &PlainTextStrategy{} }

func (s *PlainTextStrategy) Family() domain.StrategyFamily { return domain.FamilyPlainText }

func (s *PlainTextStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &domain.ExtractionError{Family: domain.FamilyPlainText, Err: errors.New("content is not valid UTF-8")}
	}
	return string(data), nil
}

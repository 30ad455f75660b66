package extract

import (
	"context"
	"fmt"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ adapter.TextExtractor = (*ImageOCRStrategy)(nil)

// ImageOCRStrategy shells out to tesseract, feeding the image on stdin and
// reading recognized text from stdout. One language per deployment;
// tesseract's progress chatter on stderr is observable at debug level only
// and never part of the result.
type ImageOCRStrategy struct {
	runner   Runner
	binary   string
	language string
	log      *zerolog.Logger
}

// NewImageOCRStrategy builds the strategy. A nil runner means the real
// binary; tests pass a stub.
func NewImageOCRStrategy(runner Runner, binary, language string, logger *zerolog.Logger) *ImageOCRStrategy {
	if runner == nil {
		runner = execRunner{}
	}
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &ImageOCRStrategy{runner: runner, binary: binary, language: language, log: logger}
}

func (s *ImageOCRStrategy) Family() domain.StrategyFamily { return domain.FamilyImage }

func (s *ImageOCRStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	// tesseract - - -l <lang>: image on stdin, recognized text on stdout
	stdout, stderr, err := s.runner.Run(ctx, data, s.binary, "-", "-", "-l", s.language)
	if len(stderr) > 0 {
		s.log.Debug().Str("stderr", truncate(string(stderr), 8<<10)).Msg("tesseract progress")
	}
	if err != nil {
		return "", &domain.ExtractionError{Family: domain.FamilyImage, Err: fmt.Errorf("tesseract: %w", err)}
	}
	return string(stdout), nil
}

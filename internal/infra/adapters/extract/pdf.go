package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"

	"github.com/ledongthuc/pdf"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ adapter.TextExtractor = (*PDFStrategy)(nil)

// PDFStrategy keeps whatever selectable text the page tree assembles
// cleanly. Pages that fail text assembly are skipped; a purely scanned PDF
// legitimately yields empty text and no error. There is no OCR fallback.
type PDFStrategy struct {
	log *zerolog.Logger
}

func NewPDFStrategy(logger *zerolog.Logger) *PDFStrategy { return &PDFStrategy{log: logger} }

func (s *PDFStrategy) Family() domain.StrategyFamily { return domain.FamilyPDF }

func (s *PDFStrategy) Extract(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on malformed xref tables and object streams; turn
	// that into an ordinary extraction failure.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &domain.ExtractionError{Family: domain.FamilyPDF, Err: fmt.Errorf("pdf parse panic: %v", rec)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &domain.ExtractionError{Family: domain.FamilyPDF, Err: err}
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			s.log.Debug().Int("page", i).Err(err).Msg("skipping page without assemblable text")
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

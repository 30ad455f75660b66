package extract

import (
	"fmt"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.FormatRouter = (*Router)(nil)

// typeToFamily is the closed routing table: declared content type, exact and
// case-sensitive, to strategy family. Rejecting everything else here keeps
// routing decisions trivially auditable; nothing ever sniffs file bytes.
var typeToFamily = map[string]domain.StrategyFamily{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       domain.FamilySpreadsheet,
	"application/vnd.ms-excel":                                                domain.FamilySpreadsheet,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FamilyDocument,
	"application/msword": domain.FamilyDocument,
	"application/pdf":    domain.FamilyPDF,
	"text/plain":         domain.FamilyPlainText,
	"text/csv":           domain.FamilyPlainText,
	"text/markdown":      domain.FamilyPlainText,
	"image/png":          domain.FamilyImage,
	"image/jpeg":         domain.FamilyImage,
	"image/webp":         domain.FamilyImage,
	"image/tiff":         domain.FamilyImage,
	"image/bmp":          domain.FamilyImage,
}

type Router struct {
	byType map[string]adapter.TextExtractor
}

// NewRouter wires one strategy instance per family. Every family named in
// the routing table must be covered or construction fails.
func NewRouter(strategies ...adapter.TextExtractor) (*Router, error) {
	byFamily := make(map[domain.StrategyFamily]adapter.TextExtractor, len(strategies))
	for _, s := range strategies {
		byFamily[s.Family()] = s
	}
	byType := make(map[string]adapter.TextExtractor, len(typeToFamily))
	for ct, fam := range typeToFamily {
		s, ok := byFamily[fam]
		if !ok {
			return nil, fmt.Errorf("%w: no strategy for family %s", domain.ErrInvalidArgument, fam)
		}
		byType[ct] = s
	}
	return &Router{byType: byType}, nil
}

func (r *Router) Select(contentType string) (adapter.TextExtractor, error) {
	s, ok := r.byType[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, contentType)
	}
	return s, nil
}

package extract

import (
	"bytes"
	"context"
	"strings"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"

	"github.com/xuri/excelize/v2"
)

// Compile-time check
var _ adapter.TextExtractor = (*SpreadsheetStrategy)(nil)

// SpreadsheetStrategy renders workbook cells as plain text: each sheet opens
// with its name on its own line, rows follow with cells tab-joined, sheets
// are separated by a blank line, empty rows are dropped. Legacy binary .xls
// payloads are not OOXML containers and fail on open.
type SpreadsheetStrategy struct{}

func NewSpreadsheetStrategy() *SpreadsheetStrategy { return &SpreadsheetStrategy{} }

func (s *SpreadsheetStrategy) Family() domain.StrategyFamily { return domain.FamilySpreadsheet }

func (s *SpreadsheetStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", &domain.ExtractionError{Family: domain.FamilySpreadsheet, Err: err}
	}
	defer f.Close()

	var sb strings.Builder
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", &domain.ExtractionError{Family: domain.FamilySpreadsheet, Err: err}
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

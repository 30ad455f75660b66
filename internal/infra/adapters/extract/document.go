package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TextExtractor = (*DocumentStrategy)(nil)

// DocumentStrategy flattens OOXML word documents by walking
// word/document.xml directly: one line per paragraph, explicit tabs and
// breaks preserved, every run's text concatenated, all styling discarded.
// Legacy binary .doc payloads are not zip containers and fail on open.
type DocumentStrategy struct{}

func NewDocumentStrategy() *DocumentStrategy { return &DocumentStrategy{} }

func (s *DocumentStrategy) Family() domain.StrategyFamily { return domain.FamilyDocument }

func (s *DocumentStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &domain.ExtractionError{Family: domain.FamilyDocument, Err: err}
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", &domain.ExtractionError{Family: domain.FamilyDocument, Err: errors.New("no word/document.xml in archive")}
	}
	rc, err := doc.Open()
	if err != nil {
		return "", &domain.ExtractionError{Family: domain.FamilyDocument, Err: err}
	}
	defer rc.Close()

	text, err := flattenDocumentXML(rc)
	if err != nil {
		return "", &domain.ExtractionError{Family: domain.FamilyDocument, Err: err}
	}
	return text, nil
}

// flattenDocumentXML streams the document body, collecting character data
// inside w:t runs. Paragraph ends become newlines; w:tab and w:br map to the
// literal whitespace they stand for. Unknown elements are skipped, which is
// what makes footers, fields and smart tags harmless.
func flattenDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
	"schedule-ai-ingestion/internal/infra/logging"
	"schedule-ai-ingestion/internal/infra/metrics"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Compile-time check
var _ ScheduleExtractor = (*scheduleExtractorUC)(nil)

// ScheduleExtractor turns normalized document text into validated schedule
// items via the completion port. It owns the retry budget; callers see either
// a clean item list or one aggregated error.
type ScheduleExtractor interface {
	Extract(ctx context.Context, text, sourceLabel string) ([]*model.ScheduleItem, error)
}

type scheduleExtractorUC struct {
	ai          adapter.CompletionAdapter
	prompts     *PromptBuilder
	model       string
	maxAttempts int
	baseDelay   time.Duration
	schema      *jsonschema.Schema
	log         *zerolog.Logger
}

func NewScheduleExtractorUseCase(ai adapter.CompletionAdapter, prompts *PromptBuilder, model string, maxAttempts int, baseDelay time.Duration, logger *zerolog.Logger) (*scheduleExtractorUC, error) {
	if ai == nil || prompts == nil || model == "" {
		return nil, domain.ErrInvalidArgument
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	schema, err := compileItemsSchema()
	if err != nil {
		return nil, fmt.Errorf("compile items schema: %w", err)
	}
	return &scheduleExtractorUC{
		ai:          ai,
		prompts:     prompts,
		model:       model,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		schema:      schema,
		log:         logger,
	}, nil
}

func (s *scheduleExtractorUC) Extract(ctx context.Context, text, sourceLabel string) ([]*model.ScheduleItem, error) {
	defer logging.TraceDuration(s.log, "ScheduleExtractorUC.Extract")()

	prompt := s.prompts.Build(sourceLabel, text)

	var lastErr error
	attempts := 0
	for attempts < s.maxAttempts {
		attempts++
		if attempts > 1 {
			// Linear backoff: wait (n-1)*base before attempt n.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempts-1) * s.baseDelay):
			}
		}

		items, err := s.attemptOnce(ctx, prompt)
		if err == nil {
			metrics.IncExtractAttempt("ok")
			s.log.Debug().Int("attempt", attempts).Int("items", len(items)).Msg("extraction attempt succeeded")
			return items, nil
		}
		lastErr = err
		metrics.IncExtractAttempt(outcomeLabel(err))
		s.log.Warn().Err(err).Int("attempt", attempts).Int("max_attempts", s.maxAttempts).Msg("extraction attempt failed")
		if !domain.Retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("schedule extraction failed after %d attempts: %w", attempts, lastErr)
}

func (s *scheduleExtractorUC) attemptOnce(ctx context.Context, prompt string) ([]*model.ScheduleItem, error) {
	raw, err := s.ai.Complete(ctx, s.model, prompt)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrEmptyCompletion
	}
	return s.parseItems(raw)
}

// parseItems validates one raw completion in full. Shape problems discard the
// whole response; malformed optional fields degrade per item instead.
func (s *scheduleExtractorUC) parseItems(raw string) ([]*model.ScheduleItem, error) {
	payload := locateJSONArray(raw)
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("parse: %v", err)}
	}
	if err := s.schema.Validate(v); err != nil {
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("schema: %v", err)}
	}

	elems := v.([]any)
	items := make([]*model.ScheduleItem, 0, len(elems))
	for i, el := range elems {
		obj := el.(map[string]any)
		desc, _ := obj["assignment"].(string)
		src, _ := obj["source"].(string)
		item, err := model.NewScheduleItem(desc, src, coerceDate(obj["due_date"]), coerceLocation(obj["location"]))
		if err != nil {
			return nil, &domain.ValidationError{Reason: fmt.Sprintf("item %d: blank assignment or source", i)}
		}
		items = append(items, item)
	}
	return items, nil
}

// compileItemsSchema builds the structural gate for completion responses:
// an array of objects that at least carry string assignment and source.
// Optional fields stay out of the schema on purpose; they are coerced, never
// grounds for rejection.
func compileItemsSchema() (*jsonschema.Schema, error) {
	schemaMap := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []string{"assignment", "source"},
			"properties": map[string]any{
				"assignment": map[string]any{"type": "string"},
				"source":     map[string]any{"type": "string"},
			},
		},
	}
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schedule_items.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("schedule_items.json")
}

// locateJSONArray returns the first balanced top-level JSON array in raw.
// Models like to wrap the payload in prose or code fences; everything outside
// the brackets is discarded. Returns raw unchanged when no array is found so
// the JSON parser reports the real problem.
func locateJSONArray(raw string) string {
	start := strings.IndexByte(raw, '[')
	if start < 0 {
		return raw
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return raw
}

// coerceDate keeps v only when it is a string holding a real calendar date in
// YYYY-MM-DD form. Anything else becomes nil; the item itself survives.
func coerceDate(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01-02", s)
	if err != nil || t.Format("2006-01-02") != s {
		return nil
	}
	return &s
}

func coerceLocation(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func outcomeLabel(err error) string {
	if errors.Is(err, domain.ErrEmptyCompletion) {
		return "empty"
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	var te *domain.TransportError
	if errors.As(err, &te) {
		return "transport"
	}
	return "other"
}

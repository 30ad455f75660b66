package ai

import (
	"context"
	"log"
	"time"

	"schedule-ai-ingestion/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements the completion port for local/dev runs. It logs
// the prompt instead of calling a real provider and answers with an empty
// item array, so files complete with zero schedule items.
type NoopAIAdapter struct{}

// NewNoopAIAdapter constructs the noop adapter.
func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) Complete(ctx context.Context, model string, prompt string) (string, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	log.Printf("[noop-ai] model=%s prompt=%d bytes\n", model, len(prompt))
	return "[]", nil
}

package ai

import (
	"context"

	"schedule-ai-ingestion/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*limitedAI)(nil)

// limitedAI caps concurrent completion calls with a semaphore so a burst of
// pipeline runs cannot stampede the provider.
type limitedAI struct {
	inner adapter.CompletionAdapter
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.CompletionAdapter, maxConcurrent int) adapter.CompletionAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Complete(ctx context.Context, model string, prompt string) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Complete(ctx, model, prompt)
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"schedule-ai-ingestion/internal/domain/ports/adapter"

	"schedule-ai-ingestion/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*GatewayAdapter)(nil)

// GatewayAdapter talks to any OpenAI-compatible chat completions endpoint
// (vLLM, LiteLLM, provider gateways). Base URL comes from config; the wire
// path is the same as OpenAI's: /chat/completions with a Bearer key.
type GatewayAdapter struct {
	apiKey string
	base   string // e.g., http://vllm.internal:8000/v1
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func NewGatewayAdapter(apiKey, base string) (*GatewayAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gateway api key empty")
	}
	if base == "" {
		return nil, errors.New("gateway base url empty")
	}
	return &GatewayAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (g *GatewayAdapter) Complete(ctx context.Context, model string, prompt string) (string, error) {
	reqBody := struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}{Model: model, Messages: []chatMessage{{Role: "user", Content: prompt}}}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/chat/completions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		metrics.ObserveCompletion("gateway", model, time.Since(start).Milliseconds(), false)
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.ObserveCompletion("gateway", model, time.Since(start).Milliseconds(), false)
		return "", fmt.Errorf("gateway http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ObserveCompletion("gateway", model, time.Since(start).Milliseconds(), false)
		return "", err
	}
	metrics.ObserveCompletion("gateway", model, time.Since(start).Milliseconds(), true)
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("no choice content")
}

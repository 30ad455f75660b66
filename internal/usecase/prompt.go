package usecase

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// The default loader fetches BPE dictionaries over the network on first use;
// the offline loader ships them embedded.
var bpeLoaderOnce sync.Once

// PromptBuilder renders the extraction prompt and keeps the embedded document
// text inside a fixed token budget so oversized uploads cannot blow past the
// model's context window.
type PromptBuilder struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// NewPromptBuilder picks the tokenizer for model, falling back to cl100k_base
// when the model is unknown to the tokenizer tables (gateway-hosted models
// usually are).
func NewPromptBuilder(model string, maxTokens int) (*PromptBuilder, error) {
	bpeLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	if maxTokens <= 0 {
		maxTokens = 6000
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &PromptBuilder{enc: enc, maxTokens: maxTokens}, nil
}

// Build composes the single user prompt: instructions, the output contract,
// the source label, and the (possibly truncated) document text.
func (p *PromptBuilder) Build(sourceLabel, text string) string {
	parts := []string{
		"You extract schedule items (assignments, exams, deadlines, sessions) from a study document.",
		"Return ONLY a JSON array, no prose, no code fences.",
		`Each element is an object with exactly these keys: "assignment" (short description, non-empty string), "due_date" (date as YYYY-MM-DD, or null when the document gives no usable date), "location" (string, or null), "source" (the document label given below).`,
		"Return [] when the document contains no schedule items.",
	}
	var b strings.Builder
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n\nDocument label: ")
	b.WriteString(sourceLabel)
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(p.truncate(text))
	return b.String()
}

func (p *PromptBuilder) truncate(text string) string {
	// A token encodes at least one byte, so short texts skip encoding.
	if len(text) <= p.maxTokens {
		return text
	}
	ids := p.enc.Encode(text, nil, nil)
	if len(ids) <= p.maxTokens {
		return text
	}
	return p.enc.Decode(ids[:p.maxTokens]) + "\n…(truncated)"
}

package adapter

import "context"

// CompletionAdapter is the port for the structured-extraction capability.
// Implementations send one prompt and hand back raw assistant text; nothing
// here guarantees the text is JSON, or an array, or anything at all. All
// structure is imposed by the caller's validation pass.
//
// An error from Complete is a transport failure and is retryable.
type CompletionAdapter interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
}

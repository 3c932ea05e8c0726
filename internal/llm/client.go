package llm

import "context"

// Params are the sampling controls for a single completion.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopK        int
	TopP        float64
	Stop        []string
}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, p Params) (string, error)
}

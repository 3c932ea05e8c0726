package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to any OpenAI-compatible /v1/completions endpoint:
// OpenAI itself, Ollama, or a llama.cpp server hosting the bundled model.
type OpenAIClient struct {
	client openai.Client
	model  string
	// topK is not part of the OpenAI schema; only self-hosted servers get it.
	sendTopK bool
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithMaxRetries(1))
	client := openai.NewClient(opts...)
	if model == "" {
		model = "gpt-3.5-turbo-instruct"
	}
	return &OpenAIClient{client: client, model: model, sendTopK: baseURL != ""}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(c.model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(prompt),
		},
		Temperature: openai.Float(p.Temperature),
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}
	if p.TopP > 0 {
		params.TopP = openai.Float(p.TopP)
	}
	if len(p.Stop) > 0 {
		// OpenAI accepts at most four stop sequences.
		stop := p.Stop
		if len(stop) > 4 {
			stop = stop[:4]
		}
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: stop}
	}

	var opts []option.RequestOption
	if c.sendTopK && p.TopK > 0 {
		opts = append(opts, option.WithJSONSet("top_k", p.TopK))
	}

	resp, err := c.client.Completions.New(ctx, params, opts...)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Text, nil
}

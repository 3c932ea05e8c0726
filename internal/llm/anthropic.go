package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, authToken, model, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithHeader("User-Agent", "chronos/1.0"),
		option.WithMaxRetries(1),
	}
	if authToken != "" {
		opts = append(opts,
			option.WithAuthToken(authToken),
			option.WithHeader("anthropic-beta", "oauth-2025-04-20"),
		)
	} else if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}
}

// Complete sends the prompt as a single user turn.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	maxTokens := int64(p.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(p.Temperature),
	}
	if p.TopK > 0 {
		params.TopK = anthropic.Int(int64(p.TopK))
	}
	// top_p stays unset: current models reject it alongside temperature.
	for _, s := range p.Stop {
		// The API rejects whitespace-only stop sequences.
		if strings.TrimSpace(s) != "" {
			params.StopSequences = append(params.StopSequences, s)
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

package llm

import "fmt"

const DefaultLocalURL = "http://127.0.0.1:8089/v1"

type ProviderConfig struct {
	Provider  string
	APIKey    string
	AuthToken string // OAuth token (Bearer auth)
	Model     string
	BaseURL   string
}

func NewClient(cfg ProviderConfig) (Completer, error) {
	switch cfg.Provider {
	case "local":
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultLocalURL
		}
		if cfg.Model == "" {
			cfg.Model = "tinyllama-1.1b-chat"
		}
		// llama-server ignores the key but the SDK wants one.
		return NewOpenAIClient("local", cfg.Model, cfg.BaseURL), nil
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434/v1"
		}
		if cfg.Model == "" {
			cfg.Model = "tinyllama"
		}
		return NewOpenAIClient("ollama", cfg.Model, cfg.BaseURL), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.AuthToken, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

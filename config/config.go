package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const keyringService = "chronos"

type Config struct {
	LLMProvider     string // local, ollama, openai, anthropic
	LLMModel        string
	LLMBaseURL      string
	AnthropicKey    string // API key (X-Api-Key header)
	AnthropicToken  string // OAuth token (Authorization: Bearer header)
	OpenAIKey       string
	ModelPath       string // where the GGUF model lives at runtime
	ModelBundlePath string // shipped copy the model is materialized from
	LlamaServerBin  string // optional; started on first use when set
	ContextTokens   int
	InsightWindow   int
	DatabasePath    string
	DiscordToken    string
	DiscordWebhook  string
	LogLevel        string
	LogDebug        bool
}

// ConfigDir is ~/.chronos.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chronos")
}

// ConfigFile is the dotenv-format file read before .env.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// LogDir is where the rotating log file is written.
func LogDir() string {
	return filepath.Join(ConfigDir(), "logs")
}

func Load() *Config {
	_ = godotenv.Load(ConfigFile()) // ignore error if missing
	_ = godotenv.Load()             // ignore error if no .env

	cfg := &Config{
		LLMProvider:     envOr("LLM_PROVIDER", "local"),
		LLMModel:        os.Getenv("LLM_MODEL"),
		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken:  os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		ModelPath:       envOr("MODEL_PATH", filepath.Join(ConfigDir(), "models", "tinyllama-1.1b-chat.gguf")),
		ModelBundlePath: envOr("MODEL_BUNDLE_PATH", filepath.Join("assets", "models", "tinyllama-1.1b-chat.gguf")),
		LlamaServerBin:  os.Getenv("LLAMA_SERVER_BIN"),
		ContextTokens:   intOr("CONTEXT_TOKENS", 2048),
		InsightWindow:   intOr("INSIGHT_WINDOW", 10),
		DatabasePath:    envOr("DATABASE_PATH", filepath.Join(ConfigDir(), "chronos.db")),
		DiscordToken:    os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordWebhook:  os.Getenv("DISCORD_WEBHOOK_URL"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogDebug:        boolOr("LOG_DEBUG", false),
	}

	if cfg.AnthropicKey == "" {
		cfg.AnthropicKey, _ = GetSecret("anthropic")
	}
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey, _ = GetSecret("openai")
	}
	return cfg
}

// ErrSecretNotFound is returned when no key is stored for a provider.
var ErrSecretNotFound = errors.New("no key stored in keyring")

// GetSecret reads a provider API key from the OS keyring.
func GetSecret(provider string) (string, error) {
	v, err := keyring.Get(keyringService, provider+"_api_key")
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return v, nil
}

// SetSecret stores a provider API key in the OS keyring.
func SetSecret(provider, value string) error {
	if value == "" {
		return errors.New("key cannot be empty")
	}
	if err := keyring.Set(keyringService, provider+"_api_key", value); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// DeleteSecret removes a provider API key from the OS keyring.
func DeleteSecret(provider string) error {
	err := keyring.Delete(keyringService, provider+"_api_key")
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrSecretNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting from keyring: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func boolOr(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

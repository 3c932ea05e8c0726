package config

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("CHRONOS_TEST_VAR", "set")
	if got := envOr("CHRONOS_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("got %q, want %q", got, "set")
	}
	if got := envOr("CHRONOS_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q, want %q", got, "fallback")
	}
}

func TestIntOr(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 7},
		{"valid", "12", 12},
		{"garbage", "abc", 7},
		{"zero", "0", 7},
		{"negative", "-3", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CHRONOS_INT", tt.value)
			if got := intOr("CHRONOS_INT", 7); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBoolOr(t *testing.T) {
	t.Setenv("CHRONOS_BOOL", "true")
	if !boolOr("CHRONOS_BOOL", false) {
		t.Error("expected true")
	}
	t.Setenv("CHRONOS_BOOL", "nope")
	if boolOr("CHRONOS_BOOL", false) {
		t.Error("expected fallback false for garbage")
	}
}

func TestLoadDefaults(t *testing.T) {
	keyring.MockInit()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("INSIGHT_WINDOW", "")
	t.Setenv("CONTEXT_TOKENS", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := Load()
	if cfg.LLMProvider != "local" {
		t.Errorf("LLMProvider = %q, want local", cfg.LLMProvider)
	}
	if cfg.InsightWindow != 10 {
		t.Errorf("InsightWindow = %d, want 10", cfg.InsightWindow)
	}
	if cfg.ContextTokens != 2048 {
		t.Errorf("ContextTokens = %d, want 2048", cfg.ContextTokens)
	}
	if cfg.AnthropicKey != "" {
		t.Errorf("AnthropicKey = %q, want empty", cfg.AnthropicKey)
	}
}

func TestLoadFallsBackToKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")

	if err := SetSecret("anthropic", "sk-from-keyring"); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}
	cfg := Load()
	if cfg.AnthropicKey != "sk-from-keyring" {
		t.Errorf("AnthropicKey = %q, want keyring value", cfg.AnthropicKey)
	}
}

func TestSecretRoundTrip(t *testing.T) {
	keyring.MockInit()

	if _, err := GetSecret("openai"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}
	if err := SetSecret("openai", ""); err == nil {
		t.Error("expected error for empty key")
	}
	if err := SetSecret("openai", "sk-1"); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}
	got, err := GetSecret("openai")
	if err != nil || got != "sk-1" {
		t.Fatalf("GetSecret = (%q, %v)", got, err)
	}
	if err := DeleteSecret("openai"); err != nil {
		t.Fatalf("DeleteSecret: %v", err)
	}
	if err := DeleteSecret("openai"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("second delete: expected ErrSecretNotFound, got %v", err)
	}
}

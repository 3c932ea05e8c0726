package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/chris/chronos/config"
	"github.com/chris/chronos/internal/db"
	"github.com/chris/chronos/internal/insight"
	"github.com/chris/chronos/internal/journal"
	"github.com/chris/chronos/internal/llm"
	"github.com/chris/chronos/internal/settings"
)

// Model is what commands need from the model runtime.
type Model interface {
	insight.Runtime
	Release() error
}

// Context carries the shared dependencies every command runs against.
type Context struct {
	Config   *config.Config
	DB       *db.DB
	Store    *journal.Store
	Model    Model
	Insights *insight.Insights
	Settings *settings.Settings
	Out      io.Writer
	In       io.Reader
	Now      func() time.Time
}

// Open wires a Context from cfg. The model is not touched until a command
// asks for it.
func Open(cfg *config.Config) (*Context, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	model, err := NewModel(cfg)
	if err != nil {
		database.Close()
		return nil, err
	}
	return NewContext(cfg, database, model), nil
}

// NewContext builds a Context over an open database and model.
func NewContext(cfg *config.Config, database *db.DB, model Model) *Context {
	store := journal.NewStore(database)
	return &Context{
		Config: cfg,
		DB:     database,
		Store:  store,
		Model:  model,
		Insights: insight.New(store, database, model,
			insight.WithWindow(cfg.InsightWindow),
			insight.WithContextTokens(cfg.ContextTokens),
		),
		Settings: settings.New(database, nil),
		Out:      os.Stdout,
		In:       os.Stdin,
		Now:      time.Now,
	}
}

// NewModel builds the runtime for cfg.LLMProvider. Only the local provider
// needs the bundled model file and, optionally, a llama-server.
func NewModel(cfg *config.Config) (*llm.Runtime, error) {
	apiKey := cfg.AnthropicKey
	if cfg.LLMProvider == "openai" {
		apiKey = cfg.OpenAIKey
	}
	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    apiKey,
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	if cfg.LLMProvider != "local" {
		return llm.NewRuntime(client), nil
	}

	opts := []llm.RuntimeOption{llm.WithModelAsset(cfg.ModelPath, cfg.ModelBundlePath)}
	if cfg.LlamaServerBin != "" {
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = llm.DefaultLocalURL
		}
		pidFile := filepath.Join(config.ConfigDir(), "llama-server.pid")
		opts = append(opts, llm.WithServer(
			llm.NewLocalServer(cfg.LlamaServerBin, cfg.ModelPath, baseURL, pidFile, cfg.ContextTokens),
		))
	}
	return llm.NewRuntime(client, opts...), nil
}

// Close releases the model and the database.
func (c *Context) Close() error {
	if c.Model != nil {
		_ = c.Model.Release()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

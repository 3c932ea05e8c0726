package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chris/chronos/internal/logger"
)

// Runtime is the process-wide handle on the model. Preparing it (copying the
// model into place, booting the server) happens at most once per process;
// a failed attempt is retried on the next call.
type Runtime struct {
	client     Completer
	modelPath  string
	bundlePath string
	server     *LocalServer

	mu    sync.Mutex
	ready bool
}

type RuntimeOption func(*Runtime)

// WithModelAsset makes readiness depend on the model file being present at
// modelPath, copied from bundlePath on first use.
func WithModelAsset(modelPath, bundlePath string) RuntimeOption {
	return func(r *Runtime) {
		r.modelPath = modelPath
		r.bundlePath = bundlePath
	}
}

// WithServer boots a llama-server during EnsureReady.
func WithServer(s *LocalServer) RuntimeOption {
	return func(r *Runtime) { r.server = s }
}

func NewRuntime(client Completer, opts ...RuntimeOption) *Runtime {
	r := &Runtime{client: client}
	for _, o := range opts {
		o(r)
	}
	return r
}

// EnsureReady prepares the model. Errors wrap ErrModelUnavailable.
func (r *Runtime) EnsureReady(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	start := time.Now()
	if r.modelPath != "" {
		copied, err := Materialize(r.bundlePath, r.modelPath)
		if err != nil {
			return err
		}
		if copied {
			logger.Info("model materialized from bundle", "path", r.modelPath)
		}
	}
	if r.server != nil {
		if err := r.server.Start(ctx); err != nil {
			if errors.Is(err, ErrModelUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	}
	r.ready = true
	logger.Debug("model runtime ready", "took", time.Since(start))
	return nil
}

// Ready reports whether EnsureReady has succeeded.
func (r *Runtime) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Complete runs one completion, preparing the runtime first if needed.
func (r *Runtime) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	if err := r.EnsureReady(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	out, err := r.client.Complete(ctx, prompt, p)
	if err != nil {
		return "", err
	}
	logger.Debug("completion finished", "took", time.Since(start), "prompt_tokens", EstimateTokens(prompt), "output_chars", len(out))
	return out, nil
}

// Release stops anything EnsureReady started. The next call prepares again.
func (r *Runtime) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = false
	if r.server != nil {
		return r.server.Stop()
	}
	return nil
}

package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chris/chronos/internal/journal"
	"github.com/chris/chronos/internal/llm"
	"github.com/chris/chronos/internal/logger"
)

// User-facing texts.
const (
	EmptyMessage     = "Write at least one entry to receive AI insights"
	ModelPrepMessage = "Failed to initialize AI model. Please try again."
	OfflineMessage   = "Sentient AI is currently offline. Please try again later."
)

const (
	DefaultWindow        = 10
	DefaultContextTokens = 2048
)

// DefaultParams favors extractive, repeatable output.
var DefaultParams = llm.Params{
	MaxTokens:   200,
	Temperature: 0,
	TopK:        40,
	TopP:        0.95,
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCacheCheck
	PhaseModelPrep
	PhaseInference
	PhaseDone
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCacheCheck:
		return "cache-check"
	case PhaseModelPrep:
		return "model-prep"
	case PhaseInference:
		return "inference"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Kind classifies how a run ended.
type Kind int

const (
	KindNone Kind = iota
	KindNoData
	KindModelPrep
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNoData:
		return "no-data"
	case KindModelPrep:
		return "model-prep-failure"
	case KindInference:
		return "inference-failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is what a front end renders.
type State struct {
	Phase     Phase
	Kind      Kind
	Text      string
	Loading   bool
	FromCache bool
	Err       error // underlying cause when Phase == PhaseError
}

type EntryLister interface {
	ListAll(ctx context.Context) ([]journal.Entry, error)
}

type Runtime interface {
	EnsureReady(ctx context.Context) error
	Complete(ctx context.Context, prompt string, p llm.Params) (string, error)
}

// Insights produces at most one model-generated summary per calendar day.
type Insights struct {
	entries       EntryLister
	cache         *Cache
	runtime       Runtime
	tmpl          Template
	window        int
	contextTokens int
	params        llm.Params
	now           func() time.Time

	mu    sync.Mutex
	state State
}

type Option func(*Insights)

func WithWindow(n int) Option {
	return func(i *Insights) {
		if n > 0 {
			i.window = n
		}
	}
}

func WithContextTokens(n int) Option {
	return func(i *Insights) { i.contextTokens = n }
}

func WithTemplate(t Template) Option {
	return func(i *Insights) { i.tmpl = t }
}

func WithClock(now func() time.Time) Option {
	return func(i *Insights) { i.now = now }
}

func New(entries EntryLister, kv KV, runtime Runtime, opts ...Option) *Insights {
	i := &Insights{
		entries:       entries,
		cache:         NewCache(kv),
		runtime:       runtime,
		tmpl:          DefaultTemplate,
		window:        DefaultWindow,
		contextTokens: DefaultContextTokens,
		params:        DefaultParams,
		now:           time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// State returns the latest observable state.
func (i *Insights) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// LoadDaily returns today's insight, generating and caching it when needed.
// Failures are reported in the returned State, never cached, and a call made
// while another is in flight returns the in-flight state untouched.
func (i *Insights) LoadDaily(ctx context.Context) State {
	i.mu.Lock()
	if i.state.Loading {
		s := i.state
		i.mu.Unlock()
		logger.Debug("insight already loading, skipping duplicate call")
		return s
	}
	i.state = State{Phase: PhaseCacheCheck, Loading: true}
	i.mu.Unlock()

	s := i.run(ctx)
	s.Loading = false

	i.mu.Lock()
	i.state = s
	i.mu.Unlock()

	if s.Phase == PhaseError {
		logger.Warn("insight failed", "kind", s.Kind, "err", s.Err)
	}
	return s
}

func (i *Insights) setPhase(p Phase) {
	i.mu.Lock()
	i.state.Phase = p
	i.mu.Unlock()
	logger.Debug("insight phase", "phase", p)
}

func (i *Insights) run(ctx context.Context) State {
	today := journal.Today(i.now())

	rec, err := i.cache.Load(ctx)
	if err != nil {
		logger.Warn("insight cache unreadable, regenerating", "err", err)
	} else if rec.Valid(today) {
		logger.Debug("insight cache hit", "date", today)
		return State{Phase: PhaseDone, Text: rec.Text, FromCache: true}
	}

	all, err := i.entries.ListAll(ctx)
	if err != nil {
		return failed(KindInference, fmt.Errorf("listing entries: %w", err))
	}
	if len(all) == 0 {
		return State{Phase: PhaseDone, Kind: KindNoData, Text: EmptyMessage}
	}

	window := i.tmpl.Fit(all, i.window, i.contextTokens, i.params.MaxTokens)
	prompt := i.tmpl.render(window)
	logger.Debug("insight prompt built", "entries", len(window), "tokens", llm.EstimateTokens(prompt))

	i.setPhase(PhaseModelPrep)
	if err := i.runtime.EnsureReady(ctx); err != nil {
		return failed(KindModelPrep, err)
	}

	i.setPhase(PhaseInference)
	params := i.params
	params.Stop = i.tmpl.StopMarkers
	raw, err := i.runtime.Complete(ctx, prompt, params)
	if err != nil {
		if errors.Is(err, llm.ErrModelUnavailable) {
			return failed(KindModelPrep, err)
		}
		return failed(KindInference, err)
	}

	cleaned := i.tmpl.Clean(raw)
	if cleaned == "" {
		return failed(KindInference, errors.New("model returned no usable text"))
	}
	text := strings.TrimSpace(i.tmpl.Seed + " " + cleaned)

	if err := i.cache.Save(ctx, Record{Date: today, Text: text}); err != nil {
		return failed(KindInference, err)
	}
	logger.Info("insight generated", "date", today, "entries", len(window))
	return State{Phase: PhaseDone, Text: text}
}

func failed(k Kind, err error) State {
	msg := OfflineMessage
	if k == KindModelPrep {
		msg = ModelPrepMessage
	}
	return State{Phase: PhaseError, Kind: k, Text: msg, Err: err}
}

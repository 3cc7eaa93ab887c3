package hlg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Lenny-the-burger/hlg/internal/embedding"
	"github.com/Lenny-the-burger/hlg/internal/logging"
	"github.com/Lenny-the-burger/hlg/internal/runtime"
	"github.com/Lenny-the-burger/hlg/pkg/adapters/file"
	"github.com/Lenny-the-burger/hlg/pkg/conversation"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
	"github.com/Lenny-the-burger/hlg/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// Version is the library version, overridden at build time.
var Version = "dev"

// instances maps handles held by conversations to live instances.
var instances = registry.New[*Instance]()

// Instance is a loaded generator: three immutable stage configurations and
// the shared embedding table.
type Instance struct {
	mu     sync.RWMutex
	id     string
	state  domain.LifecycleState
	opts   domain.Options
	loader ports.ModelLoader
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	syntax   domain.SyntaxConfig
	semantic domain.SemanticConfig
	cohesion domain.CohesionConfig
	cache    *embedding.Cache
	engine   *runtime.Engine
}

// Option defines a functional option for configuring an Instance.
type Option func(*Instance)

// WithLoader replaces the default YAML model loader.
func WithLoader(l ports.ModelLoader) Option {
	return func(i *Instance) {
		i.loader = l
	}
}

// WithLogger sets a structured logger for the instance.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Instance) {
		i.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Instance) {
		i.hooks = hooks
	}
}

// Init loads the three models and opens the embedding table. The model
// files are read concurrently; the first failure aborts the rest.
func Init(ctx context.Context, opts domain.Options, options ...Option) (*Instance, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("hlg: init: %w", err)
	}

	inst := &Instance{opts: opts}
	for _, opt := range options {
		opt(inst)
	}
	if inst.loader == nil {
		inst.loader = file.NewLoader()
	}
	if inst.logger == nil {
		inst.logger = logging.NewNop()
	}

	start := time.Now()
	var (
		syn   domain.SyntaxConfig
		sem   domain.SemanticConfig
		coh   domain.CohesionConfig
		cache *embedding.Cache
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		syn, err = inst.loader.LoadSyntax(gctx, opts.SyntacticModelPath, opts.SyntacticLayers)
		return err
	})
	g.Go(func() (err error) {
		sem, err = inst.loader.LoadSemantic(gctx, opts.SemanticModelPath)
		return err
	})
	g.Go(func() (err error) {
		coh, err = inst.loader.LoadCohesion(gctx, opts.CohesionModelPath, opts.CohesionLayers)
		return err
	})
	g.Go(func() (err error) {
		cache, err = embedding.Open(opts.EmbeddingsPath, opts.CacheBytes())
		return err
	})
	if err := g.Wait(); err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, fmt.Errorf("hlg: init: %w", err)
	}

	if err := errors.Join(syn.Validate(), sem.Validate(), coh.ValidateAgainst(syn)); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("hlg: init: %w", err)
	}
	sem.Embedding = cache

	inst.syntax, inst.semantic, inst.cohesion, inst.cache = syn, sem, coh, cache
	inst.id = instances.Register(inst)
	inst.logger = inst.logger.With("instance", inst.id)
	inst.engine = runtime.NewEngine(syn, sem, coh,
		runtime.Config{NgramWeight: opts.Ngram(), MaxSpan: opts.MaxSpan},
		runtime.WithLifecycleHooks(inst.hooks),
		runtime.WithLogger(inst.logger),
	)
	inst.state = domain.StateInitialized

	inst.logger.Info("instance initialized",
		"syntax_layers", len(syn.Layers),
		"chains", len(sem.Chains),
		"cohesion_layers", len(coh.Layers),
		"embedding_dim", cache.Dimension(),
		"embedding_words", cache.Len(),
		"cache_bytes", opts.CacheBytes(),
		"duration", time.Since(start),
	)
	return inst, nil
}

// Lookup returns the live instance registered under handle.
func Lookup(handle string) (*Instance, bool) {
	return instances.Lookup(handle)
}

// Cleanup releases the embedding table and unregisters the instance.
// Conversations bound to it start failing with domain.ErrNotInitialized.
// Safe on nil and idempotent.
func (i *Instance) Cleanup() {
	if i == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != domain.StateInitialized {
		return
	}

	if err := i.cache.Close(); err != nil {
		i.logger.Warn("failed to close embedding table", "err", err)
	}
	instances.Unregister(i.id)
	i.cache = nil
	i.engine = nil
	i.syntax, i.semantic, i.cohesion = domain.SyntaxConfig{}, domain.SemanticConfig{}, domain.CohesionConfig{}
	i.state = domain.StateCleaned
	i.logger.Info("instance cleaned up")
}

// ID returns the registry handle conversations bind to.
func (i *Instance) ID() string {
	return i.id
}

// State returns the lifecycle state.
func (i *Instance) State() domain.LifecycleState {
	if i == nil {
		return domain.StateUninitialized
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Options returns the effective options, defaults applied.
func (i *Instance) Options() domain.Options {
	return i.opts
}

// Syntax returns the syntax configuration.
func (i *Instance) Syntax() domain.SyntaxConfig {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.syntax
}

// Semantic returns the semantic configuration.
func (i *Instance) Semantic() domain.SemanticConfig {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.semantic
}

// Cohesion returns the cohesion configuration.
func (i *Instance) Cohesion() domain.CohesionConfig {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cohesion
}

// Dimension returns the embedding dimension, 0 once cleaned up.
func (i *Instance) Dimension() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.cache == nil {
		return 0
	}
	return i.cache.Dimension()
}

// CacheStats reports embedding cache activity.
func (i *Instance) CacheStats() domain.CacheStats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.cache == nil {
		return domain.CacheStats{}
	}
	return i.cache.Stats()
}

// LookupWord resolves word through the embedding table.
func (i *Instance) LookupWord(word string) ([]float32, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.state != domain.StateInitialized {
		return nil, false, domain.ErrNotInitialized
	}
	return i.cache.LookupWord(word)
}

// NewConversation creates a conversation sized to the embedding dimension
// and bound to this instance. A zero capacity uses the configured
// history_capacity.
func (i *Instance) NewConversation(capacity int) (*conversation.Conversation, error) {
	if i == nil {
		return nil, fmt.Errorf("hlg: new conversation: %w", domain.ErrNullPointer)
	}
	dim := i.Dimension()
	if dim == 0 {
		return nil, fmt.Errorf("hlg: new conversation: %w", domain.ErrNotInitialized)
	}
	if capacity == 0 {
		capacity = i.opts.HistoryCapacity
	}
	c, err := conversation.New(dim, capacity)
	if err != nil {
		return nil, fmt.Errorf("hlg: new conversation: %w", err)
	}
	i.Attach(c)
	return c, nil
}

// Attach binds c to this instance.
func (i *Instance) Attach(c *conversation.Conversation) {
	c.Bind(i.id, conversation.ResolverFunc(resolve))
}

func resolve(handle string) (conversation.Embedder, error) {
	inst, ok := instances.Lookup(handle)
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", handle, domain.ErrNotInitialized)
	}
	return inst, nil
}

// Generate runs the pipeline conditioned on conv and writes the text into
// out as a zero-terminated string, truncated to len(out)-1 bytes on a rune
// boundary. It returns the bytes written, terminator excluded. A nil conv
// generates without context and records nothing. On success the full,
// untruncated text is appended to conv; on failure neither out nor conv
// is touched.
func (i *Instance) Generate(ctx context.Context, conv *conversation.Conversation, out []byte) (int, error) {
	if i == nil || len(out) == 0 {
		return 0, fmt.Errorf("hlg: generate: %w", domain.ErrNullPointer)
	}
	var n int
	_, err := i.generate(ctx, conv, func(text string) (int, bool) {
		var truncated bool
		n, truncated = runtime.CopyText(out, text)
		return n, truncated
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GenerateText is Generate without an output buffer limit.
func (i *Instance) GenerateText(ctx context.Context, conv *conversation.Conversation) (string, error) {
	if i == nil {
		return "", fmt.Errorf("hlg: generate: %w", domain.ErrNullPointer)
	}
	return i.generate(ctx, conv, func(text string) (int, bool) { return len(text), false })
}

// Trace runs the pipeline like GenerateText but records nothing and returns
// every stage's skeleton.
func (i *Instance) Trace(ctx context.Context, conv *conversation.Conversation) (runtime.Result, error) {
	if i == nil {
		return runtime.Result{}, fmt.Errorf("hlg: trace: %w", domain.ErrNullPointer)
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.state != domain.StateInitialized {
		return runtime.Result{}, fmt.Errorf("hlg: trace: %w", domain.ErrNotInitialized)
	}
	return i.engine.Run(ctx, contextOf(conv))
}

// generate holds the read lock for the whole pass so Cleanup cannot close
// the table underneath it. emit writes the output and reports the bytes
// written and whether the text was cut.
func (i *Instance) generate(ctx context.Context, conv *conversation.Conversation, emit func(string) (int, bool)) (string, error) {
	start := time.Now()
	ev := &domain.GenerateEvent{Timestamp: start}
	if conv != nil {
		ev.ConversationID = conv.ID()
	}
	defer func() {
		ev.Duration = time.Since(start)
		if i.hooks.OnGenerate != nil {
			i.hooks.OnGenerate(ctx, ev)
		}
	}()

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.state != domain.StateInitialized {
		ev.Err = fmt.Errorf("hlg: generate: %w", domain.ErrNotInitialized)
		return "", ev.Err
	}

	res, err := i.engine.Run(ctx, contextOf(conv))
	if err != nil {
		ev.Err = fmt.Errorf("hlg: generate: %w", err)
		i.logger.Warn("generation failed", "err", err)
		return "", ev.Err
	}
	if conv != nil {
		if err := conv.AppendWith(ctx, i.cache, res.Text); err != nil {
			ev.Err = fmt.Errorf("hlg: generate: record output: %w", err)
			return "", ev.Err
		}
	}

	ev.Bytes, ev.Truncated = emit(res.Text)
	i.logger.Debug("generated", "bytes", ev.Bytes, "truncated", ev.Truncated, "conversation", ev.ConversationID)
	return res.Text, nil
}

func contextOf(conv *conversation.Conversation) []float32 {
	if conv == nil {
		return nil
	}
	return conv.ContextVector()
}

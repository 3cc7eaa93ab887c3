// Package runtime wires the three stages into one generation pass and
// reports each pass through lifecycle hooks and the logger.
package runtime

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Lenny-the-burger/hlg/internal/logging"
	"github.com/Lenny-the-burger/hlg/internal/stage"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
)

// Config carries the tunables the stages need.
type Config struct {
	NgramWeight float64
	MaxSpan     int
}

// Result is the outcome of one pass. Each skeleton is the output of the
// stage it is named after.
type Result struct {
	Text     string
	Syntax   domain.Skeleton
	Semantic domain.Skeleton
	Cohesion domain.Skeleton
}

// Engine runs syntax, semantic and cohesion in order. It holds no mutable
// state and may be shared across goroutines.
type Engine struct {
	syntax   *stage.Syntax
	semantic *stage.Semantic
	cohesion *stage.Cohesion
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds the stages from their configurations.
func NewEngine(syn domain.SyntaxConfig, sem domain.SemanticConfig, coh domain.CohesionConfig, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		syntax:   stage.NewSyntax(syn, cfg.MaxSpan),
		semantic: stage.NewSemantic(sem, cfg.NgramWeight),
		cohesion: stage.NewCohesion(coh),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one generation pass conditioned on contextVector, which may
// be nil. Cancellation is honoured between stages.
func (e *Engine) Run(ctx context.Context, contextVector []float32) (Result, error) {
	var res Result

	err := e.step(ctx, domain.StageSyntax, func() (int, error) {
		res.Syntax = e.syntax.Run()
		return len(res.Syntax.Slots), nil
	})
	if err != nil {
		return Result{}, err
	}

	err = e.step(ctx, domain.StageSemantic, func() (int, error) {
		var err error
		res.Semantic, err = e.semantic.Run(res.Syntax, contextVector)
		return len(res.Semantic.Slots), err
	})
	if err != nil {
		return Result{}, err
	}

	err = e.step(ctx, domain.StageCohesion, func() (int, error) {
		res.Cohesion, res.Text = e.cohesion.Run(res.Semantic)
		return len(res.Cohesion.Slots), nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (e *Engine) step(ctx context.Context, name domain.StageName, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if e.hooks.OnStageEnter != nil {
		e.hooks.OnStageEnter(ctx, &domain.StageEvent{Timestamp: start, Stage: name})
	}

	slots, err := fn()

	ev := &domain.StageEvent{
		Timestamp: time.Now(),
		Stage:     name,
		Slots:     slots,
		Duration:  time.Since(start),
		Err:       err,
	}
	if e.hooks.OnStageLeave != nil {
		e.hooks.OnStageLeave(ctx, ev)
	}
	if err != nil {
		e.logger.Debug("stage failed", "stage", name, "err", err)
		return err
	}
	e.logger.Debug("stage done", "stage", name, "slots", slots, "duration", ev.Duration)
	return nil
}

// CopyText writes text into out, truncated to len(out)-1 bytes without
// splitting a UTF-8 sequence, followed by a zero byte. It returns the bytes
// written before the terminator. out must not be empty.
func CopyText(out []byte, text string) (n int, truncated bool) {
	limit := len(out) - 1
	if len(text) > limit {
		truncated = true
		for limit > 0 && !utf8.RuneStart(text[limit]) {
			limit--
		}
		text = text[:limit]
	}
	n = copy(out, text)
	out[n] = 0
	return n, truncated
}

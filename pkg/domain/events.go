package domain

import (
	"context"
	"time"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageSyntax   StageName = "syntax"
	StageSemantic StageName = "semantic"
	StageCohesion StageName = "cohesion"
)

// StageEvent is emitted around each stage of a generation.
type StageEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Stage     StageName     `json:"stage"`
	Slots     int           `json:"slots"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// GenerateEvent is emitted once per Generate call, successful or not.
type GenerateEvent struct {
	Timestamp      time.Time     `json:"timestamp"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Bytes          int           `json:"bytes"`
	Truncated      bool          `json:"truncated,omitempty"`
	Duration       time.Duration `json:"duration"`
	Err            error         `json:"-"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnStageEnter func(context.Context, *StageEvent)
	OnStageLeave func(context.Context, *StageEvent)
	OnGenerate   func(context.Context, *GenerateEvent)
}

// ComposeHooks returns hooks that call each set in order. Nil callbacks are skipped.
func ComposeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnStageEnter = chain(out.OnStageEnter, h.OnStageEnter)
		out.OnStageLeave = chain(out.OnStageLeave, h.OnStageLeave)
		out.OnGenerate = chain(out.OnGenerate, h.OnGenerate)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

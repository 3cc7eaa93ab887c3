package runtime_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/Lenny-the-burger/hlg/internal/logging"
	"github.com/Lenny-the-burger/hlg/internal/runtime"
	"github.com/Lenny-the-burger/hlg/internal/testutils"
	"github.com/Lenny-the-burger/hlg/pkg/adapters/memory"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToyEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	loader := testutils.ToyLoader(t)
	ctx := context.Background()
	syn, err := loader.LoadSyntax(ctx, memory.SyntaxPath, 2)
	require.NoError(t, err)
	sem, err := loader.LoadSemantic(ctx, memory.SemanticPath)
	require.NoError(t, err)
	coh, err := loader.LoadCohesion(ctx, memory.CohesionPath, 1)
	require.NoError(t, err)
	cfg := runtime.Config{NgramWeight: domain.DefaultNgramWeight, MaxSpan: domain.DefaultMaxSpan}
	return runtime.NewEngine(syn, sem, coh, cfg, opts...)
}

func TestEngine_Run(t *testing.T) {
	engine := newToyEngine(t)

	res, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, testutils.ToyText, res.Text)
	assert.Equal(t, []string{"det", "nsubj", "ROOT", "det", "dobj", "punct"}, res.Syntax.Categories())
	assert.Empty(t, res.Syntax.Words()[0], "each stage result is its own copy")
	assert.Equal(t, "the", res.Semantic.Slots[0].Surface)
	assert.Equal(t, "The", res.Cohesion.Slots[0].Surface)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			events = append(events, "enter:"+string(e.Stage))
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			events = append(events, "leave:"+string(e.Stage))
			assert.Equal(t, 6, e.Slots)
			assert.NoError(t, e.Err)
		},
	}
	engine := newToyEngine(t, runtime.WithLifecycleHooks(hooks))

	_, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"enter:syntax", "leave:syntax",
		"enter:semantic", "leave:semantic",
		"enter:cohesion", "leave:cohesion",
	}, events)
}

func TestEngine_Canceled(t *testing.T) {
	var entered int
	engine := newToyEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnStageEnter: func(context.Context, *domain.StageEvent) { entered++ },
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, entered)
}

func TestEngine_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	engine := newToyEngine(t, runtime.WithLogger(logging.NewWithWriter(&buf, slog.LevelDebug)))

	_, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(buf.String(), "stage done"))
	assert.Contains(t, buf.String(), "stage=cohesion")
}

func TestCopyText(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		text      string
		want      string
		truncated bool
	}{
		{"fits", 10, "hello", "hello", false},
		{"exact", 6, "hello", "hello", false},
		{"one short", 5, "hello", "hell", true},
		{"terminator only", 1, "hello", "", true},
		{"empty text", 4, "", "", false},
		{"keeps whole runes", 4, "héllo", "hé", true},
		{"drops partial rune", 3, "héllo", "h", true},
		{"multibyte only", 3, "日本", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := bytes.Repeat([]byte{0xff}, tt.capacity)
			n, truncated := runtime.CopyText(out, tt.text)
			assert.Equal(t, tt.want, string(out[:n]))
			assert.Equal(t, byte(0), out[n])
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}

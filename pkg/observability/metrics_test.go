package observability_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCache domain.CacheStats

func (f fixedCache) CacheStats() domain.CacheStats { return domain.CacheStats(f) }

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStageLeave(ctx, &domain.StageEvent{Stage: domain.StageSyntax, Duration: time.Millisecond})
	hooks.OnGenerate(ctx, &domain.GenerateEvent{Bytes: 32, Duration: time.Millisecond})
	hooks.OnGenerate(ctx, &domain.GenerateEvent{Bytes: 9, Truncated: true})
	hooks.OnGenerate(ctx, &domain.GenerateEvent{Err: errors.New("boom")})

	expected := `
# HELP hlg_generations_total Total number of Generate calls by result.
# TYPE hlg_generations_total counter
hlg_generations_total{result="error"} 1
hlg_generations_total{result="ok"} 2
# HELP hlg_truncations_total Generations cut short by the output buffer.
# TYPE hlg_truncations_total counter
hlg_truncations_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hlg_generations_total", "hlg_truncations_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "hlg_stage_duration_seconds"))
}

func TestRegisterCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, observability.RegisterCache(reg, fixedCache{Hits: 5, Misses: 2, Evictions: 1, ResidentBytes: 64}))

	expected := `
# HELP hlg_embedding_cache_hits_total Lookups served from memory.
# TYPE hlg_embedding_cache_hits_total counter
hlg_embedding_cache_hits_total 5
# HELP hlg_embedding_cache_resident_bytes Bytes of vectors currently held in memory.
# TYPE hlg_embedding_cache_resident_bytes gauge
hlg_embedding_cache_resident_bytes 64
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hlg_embedding_cache_hits_total", "hlg_embedding_cache_resident_bytes"))

	assert.Error(t, observability.RegisterCache(reg, fixedCache{}), "duplicate registration fails")
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, observability.RegisterCache(reg, fixedCache{Misses: 3}))

	var buf bytes.Buffer
	require.NoError(t, observability.WriteText(&buf, reg))
	assert.Contains(t, buf.String(), "hlg_embedding_cache_misses_total 3")
}

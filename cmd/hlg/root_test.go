package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOptions_OnlyChangedFlagsOverride(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{
		"--config", "model/hlg.yaml",
		"--cache-mb", "0",
		"--ngram-weight", "0.25",
		"--store", "badger",
		"--redact", `\d+`,
	}))
	t.Setenv(envStoreKey, "k1")
	t.Setenv(envStoreFallbackKeys, "k2,k3")

	opts := runOptions(rootCmd)
	assert.Equal(t, "model/hlg.yaml", opts.ConfigPath)
	assert.Equal(t, map[string]any{
		"embedding_cache_size_mb": "0",
		"ngram_weight":            "0.25",
	}, opts.Overrides)
	assert.Equal(t, "badger", opts.Store.Kind)
	assert.Equal(t, "localhost:6379", opts.Store.RedisAddr)
	assert.Equal(t, []string{`\d+`}, opts.Store.Redact)
	assert.Equal(t, "k1", opts.Store.Key)
	assert.Equal(t, []string{"k2", "k3"}, opts.Store.FallbackKeys)
}

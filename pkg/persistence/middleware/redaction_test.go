package middleware_test

import (
	"context"
	"testing"

	"github.com/Lenny-the-burger/hlg/pkg/adapters/memory"
	"github.com/Lenny-the-burger/hlg/pkg/persistence/middleware"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_MasksHistory(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{`\d{4}`, `(?i)secret`})
	require.NoError(t, err)
	store := mw(underlying)

	snap := sampleSnapshot("s1")
	snap.History = append(snap.History, "a Secret word")
	require.NoError(t, store.Save(ctx, "s1", snap))

	assert.Equal(t, "my card is 4111", snap.History[1], "caller snapshot is untouched")

	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello cat", "my card is ***", "a *** word"}, stored.History)
	assert.Equal(t, snap.ContextVector, stored.ContextVector)
}

func TestRedactionMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_RedactsBeforeSealing(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	redact, err := middleware.NewRedactionMiddleware([]string{`\d+`})
	require.NoError(t, err)
	seal := middleware.MustEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	store := middleware.Chain(underlying, redact, nil, seal)
	require.NoError(t, store.Save(ctx, "s1", sampleSnapshot("s1")))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello cat", "my card is ***"}, loaded.History)
}

func TestMiddleware_Contract(t *testing.T) {
	redact, err := middleware.NewRedactionMiddleware([]string{`\d+`})
	require.NoError(t, err)
	seal := middleware.MustEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	t.Run("redaction", func(t *testing.T) {
		ports.RunConversationStoreContract(t, redact(memory.NewStore()))
	})
	t.Run("encryption", func(t *testing.T) {
		ports.RunConversationStoreContract(t, seal(memory.NewStore()))
	})
}

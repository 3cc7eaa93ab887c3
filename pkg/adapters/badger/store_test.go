package badger_test

import (
	"context"
	"testing"

	"github.com/Lenny-the-burger/hlg/pkg/adapters/badger"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/Lenny-the-burger/hlg/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_Contract(t *testing.T) {
	store, err := badger.Open(badger.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunConversationStoreContract(t, store)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := badger.Open(badger.Options{Dir: dir})
	require.NoError(t, err)
	snap := &domain.Snapshot{ID: "c1", Capacity: 4, Dimension: 2, History: []string{"a"}, ContextVector: []float32{1, 2}}
	require.NoError(t, store.Save(ctx, "c1", snap))
	require.NoError(t, store.Close())

	store, err = badger.Open(badger.Options{Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, snap.History, loaded.History)
	assert.Equal(t, snap.ContextVector, loaded.ContextVector)
}

func TestBadgerStore_RequiresDir(t *testing.T) {
	_, err := badger.Open(badger.Options{})
	assert.ErrorIs(t, err, domain.ErrNullPointer)
}

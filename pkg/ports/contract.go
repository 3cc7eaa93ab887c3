package ports

import (
	"context"
	"testing"
	"time"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract runs a suite of tests to verify that a
// ConversationStore implementation adheres to the interface contract.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	id := "contract-test-" + time.Now().Format("20060102150405")

	newSnap := func(id string) *domain.Snapshot {
		return &domain.Snapshot{
			ID:            id,
			InstanceID:    "instance-1",
			Capacity:      3,
			Dimension:     2,
			History:       []string{"hello", "there"},
			ContextVector: []float32{0.25, -1},
			UpdatedAt:     time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnap(id)
		require.NoError(t, store.Save(ctx, id, snap), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.ID, loaded.ID)
		assert.Equal(t, snap.Capacity, loaded.Capacity)
		assert.Equal(t, snap.Dimension, loaded.Dimension)
		assert.Equal(t, snap.History, loaded.History)
		assert.Equal(t, snap.ContextVector, loaded.ContextVector)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load returns an isolated copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		loaded.History[0] = "mutated"

		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "hello", again.History[0])
	})

	t.Run("Sealed envelope", func(t *testing.T) {
		sealedID := id + "-sealed"
		env := &domain.Snapshot{ID: sealedID, Capacity: 3, Sealed: []byte{0, 1, 2, 0xff}}
		require.NoError(t, store.Save(ctx, sealedID, env))
		defer func() { _ = store.Delete(ctx, sealedID) }()

		loaded, err := store.Load(ctx, sealedID)
		require.NoError(t, err)
		assert.Equal(t, env.Sealed, loaded.Sealed)
		assert.Empty(t, loaded.History)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, newSnap(id)))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, newSnap(id1))
		_ = store.Save(ctx, id2, newSnap(id2))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

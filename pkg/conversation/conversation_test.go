package conversation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Lenny-the-burger/hlg/pkg/conversation"
	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (m mapEmbedder) LookupWord(word string) ([]float32, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.vecs[word]
	return v, ok, nil
}

var toyVecs = map[string][]float32{
	"cat": {1, 0},
	"dog": {0, 1},
	"big": {1, 1},
}

func bound(t *testing.T, dim, capacity int, emb conversation.Embedder) *conversation.Conversation {
	t.Helper()
	c, err := conversation.New(dim, capacity)
	require.NoError(t, err)
	c.Bind("instance-1", conversation.ResolverFunc(func(handle string) (conversation.Embedder, error) {
		if handle != "instance-1" {
			return nil, domain.ErrNotInitialized
		}
		return emb, nil
	}))
	return c
}

func TestNew(t *testing.T) {
	c, err := conversation.New(4, 0)
	require.NoError(t, err)
	assert.Equal(t, conversation.DefaultCapacity, c.Capacity())
	assert.Equal(t, []float32{0, 0, 0, 0}, c.ContextVector())
	assert.Empty(t, c.History())
	assert.NotEmpty(t, c.ID())

	_, err = conversation.New(0, 4)
	assert.ErrorIs(t, err, domain.ErrNullPointer)
	_, err = conversation.New(2, -1)
	assert.ErrorIs(t, err, domain.ErrAllocation)
}

func TestAddPrompt_ContextIsMeanOfEntryMeans(t *testing.T) {
	c := bound(t, 2, 4, mapEmbedder{vecs: toyVecs})
	ctx := context.Background()

	require.NoError(t, c.AddPrompt(ctx, "The cat"))
	assert.Equal(t, []float32{1, 0}, c.ContextVector(), "unknown words do not dilute an entry")

	require.NoError(t, c.AddPrompt(ctx, "dog, big dog!"))
	// entry means: cat=(1,0), (dog+big+dog)/3=(1/3,1)
	vec := c.ContextVector()
	assert.InDelta(t, 2.0/3, vec[0], 1e-6)
	assert.InDelta(t, 0.5, vec[1], 1e-6)

	require.NoError(t, c.AddPrompt(ctx, "nothing known here"))
	vec2 := c.ContextVector()
	assert.InDeltaSlice(t, vec, vec2, 1e-6, "entries without known words do not contribute")
	assert.Equal(t, []string{"The cat", "dog, big dog!", "nothing known here"}, c.History())
}

func TestAddPrompt_EvictsOldestAtCapacity(t *testing.T) {
	c := bound(t, 2, 2, mapEmbedder{vecs: toyVecs})
	ctx := context.Background()

	for _, p := range []string{"cat", "dog", "dog"} {
		require.NoError(t, c.AddPrompt(ctx, p))
	}
	assert.Equal(t, []string{"dog", "dog"}, c.History())
	assert.Equal(t, []float32{0, 1}, c.ContextVector(), "evicted entries leave the context")
}

func TestAddPrompt_ProjectsToDimension(t *testing.T) {
	ctx := context.Background()

	wide := bound(t, 3, 2, mapEmbedder{vecs: toyVecs})
	require.NoError(t, wide.AddPrompt(ctx, "big"))
	assert.Equal(t, []float32{1, 1, 0}, wide.ContextVector())

	narrow := bound(t, 1, 2, mapEmbedder{vecs: toyVecs})
	require.NoError(t, narrow.AddPrompt(ctx, "dog"))
	assert.Equal(t, []float32{0}, narrow.ContextVector())
}

func TestAddPrompt_ErrorsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()

	t.Run("unbound", func(t *testing.T) {
		c, err := conversation.New(2, 2)
		require.NoError(t, err)
		assert.ErrorIs(t, c.AddPrompt(ctx, "cat"), domain.ErrNullPointer)
		assert.Empty(t, c.History())
	})

	t.Run("stale handle", func(t *testing.T) {
		c := bound(t, 2, 2, mapEmbedder{vecs: toyVecs})
		require.NoError(t, c.AddPrompt(ctx, "cat"))
		c.Bind("gone", conversation.ResolverFunc(func(string) (conversation.Embedder, error) {
			return nil, domain.ErrNotInitialized
		}))
		assert.ErrorIs(t, c.AddPrompt(ctx, "dog"), domain.ErrNotInitialized)
		assert.Equal(t, []string{"cat"}, c.History())
		assert.Equal(t, []float32{1, 0}, c.ContextVector())
	})

	t.Run("embedding failure", func(t *testing.T) {
		boom := errors.New("disk on fire")
		c := bound(t, 2, 2, mapEmbedder{err: boom})
		assert.ErrorIs(t, c.AddPrompt(ctx, "cat"), boom)
		assert.Empty(t, c.History())
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := bound(t, 2, 2, mapEmbedder{vecs: toyVecs})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, c.AddPrompt(cctx, "cat"), context.Canceled)
		assert.Empty(t, c.History())
	})
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	src := bound(t, 2, 3, mapEmbedder{vecs: toyVecs})
	require.NoError(t, src.AddPrompt(ctx, "cat"))
	require.NoError(t, src.AddPrompt(ctx, "dog"))

	snap := src.Snapshot()
	assert.Equal(t, src.ID(), snap.ID)
	assert.Equal(t, "instance-1", snap.InstanceID)
	assert.Equal(t, []string{"cat", "dog"}, snap.History)

	dst := bound(t, 2, 2, mapEmbedder{vecs: toyVecs})
	require.NoError(t, dst.Restore(snap))
	assert.Equal(t, src.ID(), dst.ID())
	assert.Equal(t, src.History(), dst.History())
	assert.Equal(t, src.ContextVector(), dst.ContextVector())

	// Restored entries are re-embedded on the next update.
	require.NoError(t, dst.AddPrompt(ctx, "dog"))
	assert.Equal(t, []string{"dog", "dog"}, dst.History())
	assert.Equal(t, []float32{0, 1}, dst.ContextVector())

	assert.ErrorIs(t, dst.Restore(nil), domain.ErrNullPointer)

	sealed := &domain.Snapshot{ID: "locked", Sealed: []byte{1, 2, 3}}
	assert.ErrorIs(t, dst.Restore(sealed), domain.ErrSealedSnapshot)
	assert.Equal(t, []string{"dog", "dog"}, dst.History(), "failed restore keeps state")
}

func TestCleanup(t *testing.T) {
	c := bound(t, 2, 2, mapEmbedder{vecs: toyVecs})
	require.NoError(t, c.AddPrompt(context.Background(), "cat"))

	c.Cleanup()
	c.Cleanup()
	assert.Empty(t, c.History())
	assert.Empty(t, c.Handle())
	assert.Equal(t, []float32{0, 0}, c.ContextVector())
	assert.ErrorIs(t, c.AddPrompt(context.Background(), "cat"), domain.ErrNullPointer)

	var nilConv *conversation.Conversation
	assert.NotPanics(t, nilConv.Cleanup)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"well-known  42x", []string{"well-known", "42x"}},
		{"don't", []string{"don", "t"}},
		{"  ", []string{}},
		{"naïve café", []string{"na", "ve", "caf"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, conversation.Tokenize(tt.in))
		})
	}
}

func TestAppendWith_WorksWithoutBinding(t *testing.T) {
	c, err := conversation.New(2, 2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.AppendWith(ctx, mapEmbedder{vecs: toyVecs}, "dog"))
	assert.Equal(t, []float32{0, 1}, c.ContextVector())
	assert.Equal(t, []string{"dog"}, c.History())

	assert.ErrorIs(t, c.AppendWith(ctx, nil, "cat"), domain.ErrNullPointer)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, c.AppendWith(canceled, mapEmbedder{vecs: toyVecs}, "cat"), context.Canceled)
	assert.Equal(t, []string{"dog"}, c.History())
}

// reentrantEmbedder reads the conversation it is embedding for, the way an
// instance guarding its table with its own lock may observe conversations.
type reentrantEmbedder struct {
	conv *conversation.Conversation
}

func (r *reentrantEmbedder) LookupWord(word string) ([]float32, bool, error) {
	_ = r.conv.History()
	v, ok := toyVecs[word]
	return v, ok, nil
}

func TestAddPrompt_EmbedsOutsideConversationLock(t *testing.T) {
	emb := &reentrantEmbedder{}
	c := bound(t, 2, 2, emb)
	emb.conv = c

	done := make(chan error, 1)
	go func() { done <- c.AddPrompt(context.Background(), "cat dog") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("AddPrompt blocked while embedding")
	}
	assert.Equal(t, []string{"cat dog"}, c.History())

	go func() { done <- c.AppendWith(context.Background(), emb, "big") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("AppendWith blocked while embedding")
	}
	assert.Equal(t, []float32{0.75, 0.75}, c.ContextVector())
}

func TestAddPrompt_ConcurrentUpdatesKeepEveryEntry(t *testing.T) {
	c := bound(t, 2, 64, mapEmbedder{vecs: toyVecs})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				assert.NoError(t, c.AddPrompt(ctx, "cat"))
				assert.NoError(t, c.AppendWith(ctx, mapEmbedder{vecs: toyVecs}, "dog"))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, c.History(), 64)
	assert.Equal(t, []float32{0.5, 0.5}, c.ContextVector())
}

func TestAddPrompt_UnboundDuringEmbedding(t *testing.T) {
	c, err := conversation.New(2, 2)
	require.NoError(t, err)
	emb := embedFunc(func(word string) ([]float32, bool, error) {
		c.Cleanup()
		return toyVecs[word], true, nil
	})
	c.Bind("instance-1", conversation.ResolverFunc(func(string) (conversation.Embedder, error) {
		return emb, nil
	}))

	assert.ErrorIs(t, c.AddPrompt(context.Background(), "cat"), domain.ErrNullPointer)
	assert.Empty(t, c.History())
}

type embedFunc func(word string) ([]float32, bool, error)

func (f embedFunc) LookupWord(word string) ([]float32, bool, error) { return f(word) }

package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	"github.com/google/uuid"
)

// DefaultCapacity is the history size used when New is given zero.
const DefaultCapacity = domain.DefaultHistoryCapacity

// Embedder resolves words to vectors.
type Embedder interface {
	LookupWord(word string) ([]float32, bool, error)
}

// Resolver turns a handle into the live generator behind it. It returns
// domain.ErrNotInitialized when the handle no longer names a ready instance.
type Resolver interface {
	Resolve(handle string) (Embedder, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(handle string) (Embedder, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(handle string) (Embedder, error) {
	return f(handle)
}

// Conversation is a bounded history plus its context vector.
// Safe for concurrent use.
type Conversation struct {
	mu       sync.Mutex
	id       string
	dim      int
	capacity int
	history  ring
	vector   []float32

	handle   string
	resolver Resolver
	updated  time.Time
	// version counts history changes so append can detect a concurrent
	// update between embedding and commit.
	version uint64
}

// New creates an empty conversation whose context vector has contextDim
// components. A zero capacity selects DefaultCapacity.
func New(contextDim, capacity int) (*Conversation, error) {
	if contextDim <= 0 {
		return nil, fmt.Errorf("context dimension %d: %w", contextDim, domain.ErrNullPointer)
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 0 {
		return nil, fmt.Errorf("history capacity %d: %w", capacity, domain.ErrAllocation)
	}
	return &Conversation{
		id:       uuid.NewString(),
		dim:      contextDim,
		capacity: capacity,
		history:  newRing(capacity),
		vector:   make([]float32, contextDim),
	}, nil
}

// ID returns the conversation identifier used by stores.
func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// SetID replaces the identifier, e.g. to resume a named session.
func (c *Conversation) SetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Bind associates the conversation with an instance handle. The
// conversation never owns what the handle points at.
func (c *Conversation) Bind(handle string, r Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle = handle
	c.resolver = r
}

// Handle returns the bound instance handle, empty when unbound.
func (c *Conversation) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Dimension returns the context vector length.
func (c *Conversation) Dimension() int {
	return c.dim
}

// Capacity returns the maximum number of retained history entries.
func (c *Conversation) Capacity() int {
	return c.capacity
}

// AddPrompt appends text to the history and recomputes the context vector
// from the retained window. On error the conversation is left unchanged.
func (c *Conversation) AddPrompt(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	id, handle, resolver := c.id, c.handle, c.resolver
	c.mu.Unlock()

	if handle == "" || resolver == nil {
		return fmt.Errorf("conversation %s is not bound to an instance: %w", id, domain.ErrNullPointer)
	}
	emb, err := resolver.Resolve(handle)
	if err != nil {
		return err
	}
	return c.update(ctx, emb, text, handle)
}

// AppendWith appends text using emb directly instead of the bound handle.
// The generator uses it to record its own output. Same atomicity as AddPrompt.
func (c *Conversation) AppendWith(ctx context.Context, emb Embedder, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if emb == nil {
		return fmt.Errorf("append: embedder: %w", domain.ErrNullPointer)
	}
	return c.update(ctx, emb, text, "")
}

// update embeds without holding c.mu, so an Embedder may take its own locks
// in any order relative to the conversation. The window is read, embedded
// aside and committed only if no other update landed in between; otherwise
// the update starts over. A non-empty bound requires the conversation to
// still carry that handle at commit time.
func (c *Conversation) update(ctx context.Context, emb Embedder, text, bound string) error {
	vec, err := meanEmbedding(emb, Tokenize(text))
	if err != nil {
		return fmt.Errorf("embed prompt: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.mu.Lock()
		entries, version := c.history.entries(), c.version
		c.mu.Unlock()

		entries = append(entries, entry{text: text, vec: vec})
		if len(entries) > c.capacity {
			entries = entries[len(entries)-c.capacity:]
		}
		for i := range entries {
			if !entries[i].stale {
				continue
			}
			v, err := meanEmbedding(emb, Tokenize(entries[i].text))
			if err != nil {
				return fmt.Errorf("embed history: %w", err)
			}
			entries[i] = entry{text: entries[i].text, vec: v}
		}

		c.mu.Lock()
		if c.version != version {
			c.mu.Unlock()
			continue
		}
		if bound != "" && c.handle != bound {
			id := c.id
			c.mu.Unlock()
			return fmt.Errorf("conversation %s is not bound to an instance: %w", id, domain.ErrNullPointer)
		}
		c.history = newRing(c.capacity)
		for _, e := range entries {
			c.history.push(e)
		}
		c.vector = contextVector(entries, c.dim)
		c.updated = time.Now().UTC()
		c.version++
		c.mu.Unlock()
		return nil
	}
}

// History returns the retained entries, oldest first.
func (c *Conversation) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.history.entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.text
	}
	return out
}

// ContextVector returns a copy of the current context vector.
func (c *Conversation) ContextVector() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float32(nil), c.vector...)
}

// Snapshot captures the persistable state.
func (c *Conversation) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.history.entries()
	history := make([]string, len(entries))
	for i, e := range entries {
		history[i] = e.text
	}
	updated := c.updated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	return &domain.Snapshot{
		ID:            c.id,
		InstanceID:    c.handle,
		Capacity:      c.capacity,
		Dimension:     c.dim,
		History:       history,
		ContextVector: append([]float32(nil), c.vector...),
		UpdatedAt:     updated,
	}
}

// Restore replaces the state with snap. The history is truncated to the
// most recent Capacity entries and the vector projected to Dimension. The
// binding is kept.
func (c *Conversation) Restore(snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("restore: %w", domain.ErrNullPointer)
	}
	if len(snap.Sealed) > 0 {
		return fmt.Errorf("restore %s: %w", snap.ID, domain.ErrSealedSnapshot)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = newRing(c.capacity)
	for _, text := range snap.History {
		c.history.push(entry{text: text, stale: true})
	}
	c.vector = project(snap.ContextVector, c.dim)
	if snap.ID != "" {
		c.id = snap.ID
	}
	c.updated = snap.UpdatedAt
	c.version++
	return nil
}

// Cleanup releases the history and unbinds the conversation. The instance
// it pointed at is unaffected. Safe to call more than once.
func (c *Conversation) Cleanup() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.reset()
	clear(c.vector)
	c.handle = ""
	c.resolver = nil
	c.version++
}

func meanEmbedding(emb Embedder, tokens []string) ([]float32, error) {
	var (
		sum   []float64
		known int
	)
	for _, tok := range tokens {
		vec, ok, err := emb.LookupWord(tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		for i := 0; i < len(sum) && i < len(vec); i++ {
			sum[i] += float64(vec[i])
		}
		known++
	}
	if known == 0 {
		return nil, nil
	}
	out := make([]float32, len(sum))
	for i, s := range sum {
		out[i] = float32(s / float64(known))
	}
	return out, nil
}

// contextVector averages the entries that had at least one known token and
// projects the result to dim.
func contextVector(entries []entry, dim int) []float32 {
	sum := make([]float64, dim)
	n := 0
	for _, e := range entries {
		if e.vec == nil {
			continue
		}
		for i := 0; i < dim && i < len(e.vec); i++ {
			sum[i] += float64(e.vec[i])
		}
		n++
	}
	out := make([]float32, dim)
	if n == 0 {
		return out
	}
	for i, s := range sum {
		out[i] = float32(s / float64(n))
	}
	return out
}

// project truncates or zero-pads v to dim.
func project(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, v)
	return out
}

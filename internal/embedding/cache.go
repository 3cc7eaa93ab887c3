package embedding

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Lenny-the-burger/hlg/pkg/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ErrOutOfRange is returned when an id is outside the table.
var ErrOutOfRange = errors.New("embedding: id out of range")

// Stats is a point-in-time view of cache activity.
type Stats = domain.CacheStats

// Cache is a bounded-memory view over an embedding table file.
// Vectors are read on demand and the least recently used ones are evicted
// once the resident bytes would exceed the budget. Records are fixed width,
// so the budget is held as a vector count. A zero budget disables retention
// entirely. Cache is safe for concurrent use.
type Cache struct {
	file   TableReader
	closer io.Closer
	header Header
	words  []string
	ids    map[string]int
	budget int64

	// mu orders Close against insertions so nothing is retained afterwards.
	mu     sync.Mutex
	lru    *lru.Cache[int, []float32]
	closed bool

	flight singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Open opens the table at path with a cache budget in bytes.
func Open(path string, budget int64) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("embedding: open %s: %w: %w", path, domain.ErrFileOpen, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("embedding: stat %s: %w: %w", path, domain.ErrFileOpen, err)
	}
	c, err := New(io.NewSectionReader(f, 0, st.Size()), budget)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

// New builds a cache over an already opened table.
func New(r TableReader, budget int64) (*Cache, error) {
	if budget < 0 {
		return nil, fmt.Errorf("embedding: %w: negative budget %d", domain.ErrAllocation, budget)
	}
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	rs := int64(h.RecordSize())
	if budget > 0 && budget < rs {
		return nil, fmt.Errorf("embedding: %w: budget %d bytes cannot hold one %d-byte vector",
			domain.ErrAllocation, budget, rs)
	}
	words, err := ReadVocab(r, h)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := ids[w]; !dup {
			ids[w] = i
		}
	}
	c := &Cache{
		file:   r,
		header: h,
		words:  words,
		ids:    ids,
		budget: budget,
	}
	if budget > 0 {
		entries := int(min(budget/rs, int64(max(h.Count, 1))))
		if c.lru, err = lru.New[int, []float32](entries); err != nil {
			return nil, fmt.Errorf("embedding: %w: %v", domain.ErrAllocation, err)
		}
	}
	return c, nil
}

// Dimension returns the vector length.
func (c *Cache) Dimension() int {
	return c.header.Dim
}

// Len returns the number of vectors in the table.
func (c *Cache) Len() int {
	return c.header.Count
}

// Words returns the table vocabulary in id order.
func (c *Cache) Words() []string {
	return append([]string(nil), c.words...)
}

// ID resolves a word to its table id.
func (c *Cache) ID(word string) (int, bool) {
	id, ok := c.ids[word]
	return id, ok
}

// LookupWord resolves word and returns its vector. ok is false for words
// outside the vocabulary.
func (c *Cache) LookupWord(word string) ([]float32, bool, error) {
	id, ok := c.ids[word]
	if !ok {
		return nil, false, nil
	}
	vec, err := c.Lookup(id)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Lookup returns the vector for id. The slice is shared and must not be modified.
func (c *Cache) Lookup(id int) ([]float32, error) {
	if id < 0 || id >= c.header.Count {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, id, c.header.Count)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("embedding: lookup on closed cache: %w", domain.ErrNotInitialized)
	}
	if c.lru != nil {
		if vec, ok := c.lru.Get(id); ok {
			c.mu.Unlock()
			c.hits.Add(1)
			return vec, nil
		}
	}
	c.mu.Unlock()
	c.misses.Add(1)

	v, err, _ := c.flight.Do(strconv.Itoa(id), func() (any, error) {
		vec, err := c.read(id)
		if err != nil {
			return nil, err
		}
		c.insert(id, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

func (c *Cache) read(id int) ([]float32, error) {
	buf := make([]byte, c.header.RecordSize())
	if _, err := c.file.ReadAt(buf, c.header.Offset(id)); err != nil {
		return nil, fmt.Errorf("embedding: read vector %d: %w", id, unexpected(err))
	}
	return decodeVector(buf, c.header.Dim), nil
}

func (c *Cache) insert(id int, vec []float32) {
	if c.lru == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if evicted := c.lru.Add(id, vec); evicted {
		c.evictions.Add(1)
	}
}

// Resident reports whether id is currently cached.
func (c *Cache) Resident(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru != nil && c.lru.Contains(id)
}

// Stats returns hit/miss/eviction counters and residency.
func (c *Cache) Stats() Stats {
	entries := 0
	c.mu.Lock()
	if c.lru != nil {
		entries = c.lru.Len()
	}
	c.mu.Unlock()
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Evictions:     c.evictions.Load(),
		ResidentBytes: int64(entries) * int64(c.header.RecordSize()),
		Entries:       entries,
		BudgetBytes:   c.budget,
	}
}

// Close drops every resident vector and closes the backing file.
// It is idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.lru != nil {
		c.lru.Purge()
	}
	c.mu.Unlock()

	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

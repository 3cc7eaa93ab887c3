// Package registry maps opaque string handles to live objects. Holders of a
// handle never own the object: once it is unregistered, lookups fail.
package registry

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry is a concurrency-safe handle table.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register stores v under a fresh handle and returns it.
func (r *Registry[T]) Register(v T) string {
	id := uuid.NewString()
	r.Put(id, v)
	return id
}

// Put stores v under id. An existing entry is overwritten.
func (r *Registry[T]) Put(id string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = v
}

// Lookup returns the object registered under id.
func (r *Registry[T]) Lookup(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Unregister drops id. Unknown ids are ignored.
func (r *Registry[T]) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// IDs returns the registered handles in lexical order.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered objects.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

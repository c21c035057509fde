// Package dedupe tracks idempotency keys of submitted assessments.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Index binds client idempotency keys to the assessment they created.
type Index interface {
	// Claim atomically binds key to id unless the key is already bound.
	// It returns the bound id and true when the key was seen before, or id
	// and false when this call created the binding.
	Claim(ctx context.Context, key, id string) (string, bool)

	// Release drops a binding so the key can be retried. Only call it when
	// the claimed assessment could not be produced.
	Release(ctx context.Context, key string)

	// Lookup returns the id bound to key, if any.
	Lookup(ctx context.Context, key string) (string, bool)

	Size() int64
}

// node is an entry of the insertion-ordered list.
type node struct {
	key        string
	id         string
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryIndex keeps bindings in a map plus a doubly linked list in
// insertion order. Bounded mode (maxSize > 0) evicts the oldest binding;
// unbounded mode never evicts.
type inMemoryIndex struct {
	mu       sync.Mutex
	entries  map[string]*node
	oldest   *node
	newest   *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryIndex creates an in-memory index with configuration options.
func NewInMemoryIndex(opts ...Option) Index {
	d := &inMemoryIndex{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.entries = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() any {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryIndex) Claim(_ context.Context, key, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.entries[key]; exists {
		return n.id, true
	}

	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.key, n.id = key, id
	n.prev = d.newest
	if d.newest != nil {
		d.newest.next = n
	}
	d.newest = n
	if d.oldest == nil {
		d.oldest = n
	}
	d.entries[key] = n
	d.size.Add(1)
	return id, false
}

func (d *inMemoryIndex) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.entries[key]; exists {
		d.unlink(n)
	}
}

func (d *inMemoryIndex) Lookup(_ context.Context, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok {
		return "", false
	}
	return n.id, true
}

// evictOldest removes the first inserted binding. Caller holds d.mu.
func (d *inMemoryIndex) evictOldest() {
	if d.oldest != nil {
		d.unlink(d.oldest)
	}
}

// unlink removes n from the list and map and recycles it. Caller holds d.mu.
func (d *inMemoryIndex) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.oldest = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.newest = n.prev
	}
	delete(d.entries, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the current number of bindings.
func (d *inMemoryIndex) Size() int64 {
	return d.size.Load()
}

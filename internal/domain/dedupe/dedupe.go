// Package dedupe tracks item identities already captured by an acquisition run.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records captured identities. Writes are serialized so several
// sessions may share one set.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Contains reports whether id was recorded, without recording it.
	Contains(ctx context.Context, id string) bool

	// Unrecord removes id so it can be captured again, used when the item
	// was recorded but could not be committed.
	Unrecord(ctx context.Context, id string)

	// Keys returns identities in the order they were first recorded.
	Keys() []string

	Size() int64
}

// inMemoryDeduper is a map plus an insertion-ordered key list. It never
// evicts: forgetting an identity would let a later round capture it twice.
type inMemoryDeduper struct {
	mu    sync.RWMutex
	seen  map[string]int // id -> index in order
	order []string
	hint  int
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int, d.hint)
	d.order = make([]string, 0, d.hint)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = len(d.order)
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Contains(_ context.Context, id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[id]
	return ok
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	d.order = append(d.order[:idx], d.order[idx+1:]...)
	for i := idx; i < len(d.order); i++ {
		d.seen[d.order[i]] = i
	}
}

func (d *inMemoryDeduper) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return int64(len(d.order))
}

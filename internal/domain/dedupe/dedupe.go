// Package dedupe tracks idempotency keys of ingest batches so a client that
// retries a submission does not queue it twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// defaultMaxSize bounds the keys kept when no option overrides it.
const defaultMaxSize = 10000

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. The check and the write are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a submission that failed after being recorded
	// can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// InMemoryDeduper keeps keys in insertion order and evicts the oldest once
// MaxSize is reached. A MaxSize of zero or less never evicts.
type InMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

var _ Deduper = (*InMemoryDeduper)(nil)

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) *InMemoryDeduper {
	d := &InMemoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *InMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[key] = d.order.PushBack(key)
	return false
}

// Unrecord implements Deduper.
func (d *InMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[key]; ok {
		d.order.Remove(e)
		delete(d.seen, key)
	}
}

// Size returns the number of keys held.
func (d *InMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

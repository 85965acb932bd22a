// Package queue holds season-record batches between the ingest endpoint and
// the workers that write them to the store.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Batch is one ingest submission.
type Batch struct {
	ID     string
	Source string
	// Key is the client's idempotency key, empty when none was sent.
	Key      string
	Records  []model.SeasonRecord
	Received time.Time
}

// NewBatch stamps records with a fresh id and the current time.
func NewBatch(source string, records []model.SeasonRecord) Batch {
	return Batch{
		ID:       uuid.NewString(),
		Source:   source,
		Records:  records,
		Received: time.Now(),
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a batch. It fails with ErrFull rather than block.
	Enqueue(ctx context.Context, b Batch) error

	// Dequeue returns a channel that receives batches as they arrive. The
	// channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Batch

	// Len returns the current number of queued batches.
	Len(ctx context.Context) int

	// Close stops accepting batches.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches  chan Batch
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of queued batches. Enqueue past it fails
// with ErrFull. Non-positive values keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.batches = make(chan Batch, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a batch to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b Batch) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if len(q.batches) >= q.capacity {
		metrics.RecordQueueRejected("full")
		return ErrFull
	}

	select {
	case q.batches <- b:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.batches))
		return nil
	case <-ctx.Done():
		metrics.RecordQueueRejected("context_cancelled")
		return ctx.Err()
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive batches as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		for b := range q.batches {
			select {
			case out <- b:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.batches))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued batches.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.batches)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting batches; queued ones are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Package worker runs the background work of the service: ingest workers that
// drain record batches into the store, and the bounded evaluator that builds
// reports for many players at once.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/battrend/internal/adapters/mq/queue"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/pkg/logger"
	"github.com/okian/battrend/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Writer persists season records.
type Writer interface {
	Put(ctx context.Context, records ...model.SeasonRecord) error
}

// Queue defines how workers receive batches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Batch
}

// DoneFunc observes a processed batch.
type DoneFunc func(ctx context.Context, b queue.Batch, err error)

// Ingester writes dequeued batches to the store, one at a time.
type Ingester struct {
	queue  Queue
	writer Writer
	name   string
	onDone DoneFunc
	logger logger.Logger

	stop chan struct{}
	done chan struct{}
}

// NewIngester creates an ingest worker over q.
func NewIngester(q Queue, writer Writer, opts ...Option) *Ingester {
	w := &Ingester{
		queue:  q,
		writer: writer,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("ingest")
	}
	if w.name != "" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run consumes batches until ctx ends, Shutdown is called or the queue is
// closed and drained.
func (w *Ingester) Run(ctx context.Context) {
	defer close(w.done)

	batches := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			w.ingest(ctx, b)
		}
	}
}

// Shutdown stops the loop after the batch in hand and waits for it.
func (w *Ingester) Shutdown(ctx context.Context) error {
	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ingester %s: %w", w.name, ctx.Err())
	}
}

func (w *Ingester) ingest(ctx context.Context, b queue.Batch) {
	log := w.logger.With(
		logger.String("batch", b.ID),
		logger.String("origin", b.Source),
		logger.Int("records", len(b.Records)))
	start := time.Now()
	metrics.UpdateWorkerActiveCount(1)

	err := w.writer.Put(ctx, b.Records...)

	metrics.UpdateWorkerActiveCount(-1)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	if w.onDone != nil {
		w.onDone(ctx, b, err)
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "ingest")
		log.Error(ctx, "batch not stored", logger.Error(err))
		return
	}
	metrics.RecordRecordsIngested(len(b.Records))
	log.Debug(ctx, "batch stored", logger.Duration("queued", start.Sub(b.Received)))
}

// Pool runs several ingesters over one queue.
type Pool struct {
	ingesters []*Ingester
	queue     Queue
	logger    logger.Logger
	wg        sync.WaitGroup
}

// NewPool creates a pool of n ingesters; fewer than one means twice the
// CPU count.
func NewPool(n int, q Queue, writer Writer, opts ...Option) *Pool {
	if n < 1 {
		n = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{queue: q, logger: logger.Get().Named("ingest")}
	for i := range n {
		named := append([]Option{WithName("ingest-" + strconv.Itoa(i))}, opts...)
		p.ingesters = append(p.ingesters, NewIngester(q, writer, named...))
	}
	metrics.UpdateWorkerCount(n)
	return p
}

// Size returns the number of ingesters.
func (p *Pool) Size() int { return len(p.ingesters) }

// Start runs every ingester in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.ingesters {
		p.wg.Go(func() { w.Run(ctx) })
	}
}

// Shutdown closes the queue, when it can be closed, and waits for the
// ingesters to drain it, bounded by ctx and the pool timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "ingesters still running at shutdown", logger.Int("ingesters", len(p.ingesters)))
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

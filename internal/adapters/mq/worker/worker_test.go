package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/battrend/internal/adapters/mq/queue"
	worker "github.com/okian/battrend/internal/adapters/mq/worker"
	model "github.com/okian/battrend/internal/domain/model"
	logging "github.com/okian/battrend/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	batches chan queue.Batch
}

func newMockQueue() *mockQueue {
	return &mockQueue{batches: make(chan queue.Batch, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Batch { return mq.batches }

func (mq *mockQueue) Close() error {
	close(mq.batches)
	return nil
}

type mockWriter struct {
	mu      sync.Mutex
	written map[string]model.SeasonRecord
	fail    map[string]error
}

func newMockWriter() *mockWriter {
	return &mockWriter{written: make(map[string]model.SeasonRecord), fail: make(map[string]error)}
}

func (mw *mockWriter) Put(_ context.Context, records ...model.SeasonRecord) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	for _, r := range records {
		if err, ok := mw.fail[r.PlayerID]; ok {
			return err
		}
	}
	for _, r := range records {
		mw.written[r.Key()] = r
	}
	return nil
}

func (mw *mockWriter) count() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return len(mw.written)
}

func (mw *mockWriter) setError(playerID string, err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.fail[playerID] = err
}

func recs(id string, seasons ...int) []model.SeasonRecord {
	out := make([]model.SeasonRecord, 0, len(seasons))
	for _, s := range seasons {
		out = append(out, model.SeasonRecord{PlayerID: id, Season: s, Team: "TST"})
	}
	return out
}

// doneRecorder collects OnDone callbacks.
type doneRecorder struct {
	mu   sync.Mutex
	errs map[string]error
	ch   chan struct{}
}

func newDoneRecorder() *doneRecorder {
	return &doneRecorder{errs: make(map[string]error), ch: make(chan struct{}, 10)}
}

func (d *doneRecorder) hook(_ context.Context, b queue.Batch, err error) {
	d.mu.Lock()
	d.errs[b.ID] = err
	d.mu.Unlock()
	d.ch <- struct{}{}
}

func (d *doneRecorder) wait(n int) bool {
	for i := 0; i < n; i++ {
		select {
		case <-d.ch:
		case <-time.After(time.Second):
			return false
		}
	}
	return true
}

func TestIngester(t *testing.T) {
	convey.Convey("Given a running ingester", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		writer := newMockWriter()
		done := newDoneRecorder()
		w := worker.NewIngester(q, writer, worker.WithName("test-ingester"), worker.WithOnDone(done.hook))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a batch arrives", func() {
			q.batches <- queue.Batch{ID: "b1", Records: recs("p1", 2022, 2023)}

			convey.Convey("Then its records are written", func() {
				convey.So(done.wait(1), convey.ShouldBeTrue)
				convey.So(writer.count(), convey.ShouldEqual, 2)
				convey.So(done.errs["b1"], convey.ShouldBeNil)
			})
		})

		convey.Convey("When a write fails", func() {
			boom := errors.New("disk full")
			writer.setError("p2", boom)
			q.batches <- queue.Batch{ID: "b2", Records: recs("p2", 2023)}
			q.batches <- queue.Batch{ID: "b3", Records: recs("p3", 2023)}

			convey.Convey("Then the failure is reported and later batches still land", func() {
				convey.So(done.wait(2), convey.ShouldBeTrue)
				convey.So(errors.Is(done.errs["b2"], boom), convey.ShouldBeTrue)
				convey.So(done.errs["b3"], convey.ShouldBeNil)
				convey.So(writer.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the ingester is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		writer := newMockWriter()
		done := newDoneRecorder()
		pool := worker.NewPool(3, q, writer, worker.WithOnDone(done.hook))
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		for _, id := range []string{"a", "b", "c", "d"} {
			convey.So(q.Enqueue(ctx, queue.NewBatch("test", recs(id, 2023))), convey.ShouldBeNil)
		}

		convey.Convey("When the pool shuts down", func() {
			convey.So(done.wait(4), convey.ShouldBeTrue)
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every batch was written and the queue is closed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(writer.count(), convey.ShouldEqual, 4)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

// Package service wires the season store, the report engine, the ingest
// pipeline and the scheduled digest refresh into the dependencies the HTTP
// API and the CLI need.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/battrend/internal/adapters/mq/queue"
	"github.com/okian/battrend/internal/adapters/mq/worker"
	"github.com/okian/battrend/internal/adapters/repository"
	"github.com/okian/battrend/internal/config"
	"github.com/okian/battrend/internal/domain/dedupe"
	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/internal/domain/report"
	"github.com/okian/battrend/pkg/logger"
	"github.com/okian/battrend/pkg/metrics"
)

// Refresh outcomes as recorded in metrics.
const (
	refreshOK    = "ok"
	refreshError = "error"
)

// Service implements the API dependencies for the regression engine.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store     repository.Store
	ownStore  bool
	assembler *report.Assembler
	evaluator *worker.Evaluator
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	scheduler *cron.Cron
	dedupe    dedupe.Deduper

	// State
	started    bool
	latest     *report.Snapshot
	// generation counts stored writes; a refresh caches its snapshot only
	// if none landed while it scanned.
	generation uint64
	now        func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a store instead of opening the configured one. The
// caller keeps ownership and closes it.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithClock overrides the time source used to stamp digests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service from cfg. A nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:    cfg,
		now:    time.Now,
		dedupe: dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds the store and the engine without starting background work.
// CLI commands that only read or load call Open; Start calls it too.
func (s *Service) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(ctx)
}

func (s *Service) openLocked(ctx context.Context) error {
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.assembler != nil {
		return nil
	}

	if s.store == nil {
		st, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = st
		s.ownStore = true
	}

	a, err := report.New(s.store,
		report.WithTuning(s.cfg.Engine),
		report.WithLogger(s.logger.Named("assembler")),
	)
	if err != nil {
		return fmt.Errorf("build assembler: %w", err)
	}
	s.assembler = a
	s.evaluator = worker.NewEvaluator(a,
		worker.WithConcurrency(s.cfg.WorkerCount),
		worker.WithEvaluatorLogger(s.logger.Named("evaluator")),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.cfg.StoreKind {
	case config.StoreBadger:
		opt := repository.WithInMemory()
		if s.cfg.StorePath != "" {
			opt = repository.WithPath(s.cfg.StorePath)
		}
		st, err := repository.OpenBadger(opt)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		s.logger.Info(ctx, "using badger store", logger.String("path", s.cfg.StorePath))
		return st, nil
	default:
		s.logger.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(ctx), nil
	}
}

// Start opens the service and starts the ingest workers and the refresh schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.openLocked(ctx); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting regression service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.pool = worker.NewPool(s.cfg.IngestWorkers, s.queue, s.store,
		worker.WithOnDone(s.onIngested),
	)
	s.pool.Start(ctx)

	if s.cfg.RefreshSpec != "" {
		s.scheduler = cron.New()
		if _, err := s.scheduler.AddFunc(s.cfg.RefreshSpec, func() { s.scheduledRefresh(ctx) }); err != nil {
			return fmt.Errorf("schedule refresh %q: %w", s.cfg.RefreshSpec, err)
		}
		s.scheduler.Start()
	}

	s.started = true
	s.logger.Info(ctx, "regression service started",
		logger.Int("ingestWorkers", s.pool.Size()),
		logger.Int("evaluators", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.String("refresh", s.cfg.RefreshSpec),
	)
	return nil
}

// Stop halts the schedule, drains the ingest queue and closes the store it owns.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	scheduler, pool := s.scheduler, s.pool
	s.started = false
	s.scheduler = nil
	s.mu.Unlock()

	// Refresh jobs and ingest callbacks take s.mu, so wait for them unlocked.
	var errs []error
	if started {
		s.logger.Info(ctx, "stopping regression service...")
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		if err := pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.store = nil
		s.assembler = nil
		s.evaluator = nil
	}
	if s.logger != nil {
		s.logger.Info(ctx, "regression service stopped")
	}
	return errors.Join(errs...)
}

// Report assembles the report of one player. Season 0 means the player's latest.
func (s *Service) Report(ctx context.Context, playerID string, season int) (*report.Report, error) {
	_, a, _, err := s.engine()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	r, err := a.Assemble(ctx, playerID, season)
	if err != nil {
		metrics.RecordReportFailure(worker.Reason(err))
		return nil, err
	}
	worker.Observe(r, time.Since(start))
	return r, nil
}

// Evaluate reports on players of season. No ids means every player with a
// record in season; season 0 means the latest stored season.
func (s *Service) Evaluate(ctx context.Context, season int, ids []string) (worker.Results, error) {
	st, _, ev, err := s.engine()
	if err != nil {
		return worker.Results{}, err
	}
	if season == 0 {
		if season, err = repository.LatestSeason(ctx, st); err != nil {
			return worker.Results{}, err
		}
	}
	if len(ids) == 0 {
		if ids, err = st.Players(ctx, season); err != nil {
			return worker.Results{}, err
		}
	}
	return ev.Evaluate(ctx, season, ids)
}

// Refresh scans the configured season and rebuilds the digest. The snapshot
// is kept as the latest unless records were stored during the scan.
func (s *Service) Refresh(ctx context.Context) (*report.Snapshot, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	res, err := s.Evaluate(ctx, s.cfg.RefreshSeason, nil)
	if err != nil {
		metrics.RecordRefresh(refreshError, s.now())
		return nil, err
	}
	snap := &report.Snapshot{
		Season:    res.Season,
		Generated: s.now(),
		Evaluated: len(res.Reports),
		Digest:    report.BuildDigest(res.Reports),
		Failures:  res.Failures,
	}
	for _, c := range report.Categories {
		metrics.UpdateDigestEntries(string(c), snap.Digest.Count(c))
	}
	metrics.RecordRefresh(refreshOK, snap.Generated)

	s.mu.Lock()
	if s.generation == gen {
		s.latest = snap
	}
	s.mu.Unlock()
	return snap, nil
}

// Digest returns the latest snapshot, refreshing first when there is none.
func (s *Service) Digest(ctx context.Context) (*report.Snapshot, error) {
	s.mu.RLock()
	snap := s.latest
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

func (s *Service) scheduledRefresh(ctx context.Context) {
	snap, err := s.Refresh(ctx)
	if err != nil {
		s.logger.Error(ctx, "scheduled refresh failed", logger.Error(err))
		return
	}
	s.logger.Info(ctx, "digest refreshed",
		logger.Int("season", snap.Season),
		logger.Int("evaluated", snap.Evaluated),
		logger.Int("alerts", snap.Digest.Players),
		logger.Int("failures", len(snap.Failures)),
	)
}

// Load validates and writes records synchronously.
func (s *Service) Load(ctx context.Context, records []model.SeasonRecord) error {
	st, _, _, err := s.engine()
	if err != nil {
		return err
	}
	if err := st.Put(ctx, records...); err != nil {
		return err
	}
	s.invalidate()
	metrics.RecordRecordsIngested(len(records))
	return nil
}

// Enqueue validates records and hands them to the ingest workers. It fails
// with queue.ErrFull under backpressure.
func (s *Service) Enqueue(ctx context.Context, source string, records []model.SeasonRecord) (queue.Batch, error) {
	return s.enqueue(ctx, queue.NewBatch(source, records))
}

// EnqueueOnce is Enqueue guarded by an idempotency key: a key already seen
// reports duplicate and queues nothing. The key is released when the batch
// cannot be queued or stored, so the client can retry it. An empty key
// always queues.
func (s *Service) EnqueueOnce(ctx context.Context, key, source string, records []model.SeasonRecord) (queue.Batch, bool, error) {
	b := queue.NewBatch(source, records)
	if key == "" {
		b, err := s.enqueue(ctx, b)
		return b, false, err
	}
	if s.dedupe.SeenAndRecord(ctx, key) {
		metrics.RecordQueueRejected("duplicate")
		return queue.Batch{Key: key, Source: source}, true, nil
	}
	b.Key = key
	b, err := s.enqueue(ctx, b)
	if err != nil {
		s.dedupe.Unrecord(ctx, key)
		return queue.Batch{}, false, err
	}
	return b, false, nil
}

func (s *Service) enqueue(ctx context.Context, b queue.Batch) (queue.Batch, error) {
	for i := range b.Records {
		if err := model.Validate(&b.Records[i]); err != nil {
			return queue.Batch{}, err
		}
	}
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return queue.Batch{}, queue.ErrClosed
	}
	if err := q.Enqueue(ctx, b); err != nil {
		return queue.Batch{}, err
	}
	return b, nil
}

// onIngested drops the cached digest once new records land, and releases
// the idempotency key of a batch the store refused.
func (s *Service) onIngested(ctx context.Context, b queue.Batch, err error) {
	if err != nil {
		if b.Key != "" {
			s.dedupe.Unrecord(ctx, b.Key)
		}
		return
	}
	s.invalidate()
}

// invalidate drops the cached digest after a write.
func (s *Service) invalidate() {
	s.mu.Lock()
	s.generation++
	s.latest = nil
	s.mu.Unlock()
}

// Seasons lists the stored seasons.
func (s *Service) Seasons(ctx context.Context) ([]int, error) {
	st, _, _, err := s.engine()
	if err != nil {
		return nil, err
	}
	return st.Seasons(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.cfg.WorkerCount,
		"ingestWorkers": s.cfg.IngestWorkers,
		"queueSize":     s.cfg.QueueSize,
		"refresh":       s.cfg.RefreshSpec,
		"dedupeKeys":    s.dedupe.Size(),
	}
	if s.store != nil {
		records := s.store.Count(ctx)
		stats["records"] = records
		metrics.UpdateStoreRecordsTotal(records)
	}
	if s.queue != nil {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	if s.latest != nil {
		stats["lastRefresh"] = s.latest.Generated.Format(time.RFC3339)
		stats["alerts"] = s.latest.Digest.Players
	}
	return stats
}

func (s *Service) engine() (repository.Store, *report.Assembler, *worker.Evaluator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.assembler == nil {
		return nil, nil, nil, ErrNotOpen
	}
	return s.store, s.assembler, s.evaluator, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/pkg/metrics"
)

// storedRecord is the badgerhold row for one season record.
type storedRecord struct {
	Key      string
	PlayerID string `badgerhold:"index"`
	Season   int    `badgerhold:"index"`
	Record   model.SeasonRecord
}

// BadgerStore persists records in an embedded badger database.
type BadgerStore struct {
	store *badgerhold.Store

	mu     sync.RWMutex
	closed bool
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens (creating when needed) a badger-backed store.
func OpenBadger(opts ...BadgerOption) (*BadgerStore, error) {
	cfg := badgerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	options := badgerhold.DefaultOptions
	options.Logger = nil
	switch {
	case cfg.inMemory:
		options.InMemory = true
		options.Dir = ""
		options.ValueDir = ""
	case cfg.path == "":
		return nil, errors.New("badger store needs a path or in-memory mode")
	default:
		if err := os.MkdirAll(cfg.path, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		options.Dir = cfg.path
		options.ValueDir = cfg.path
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{store: store}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// Put implements Store.Put inside a single badger transaction.
func (s *BadgerStore) Put(ctx context.Context, records ...model.SeasonRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("put", float64(time.Since(start).Milliseconds()))
	}()

	if err := validateAll(records); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	tx := s.store.Badger().NewTransaction(true)
	defer tx.Discard()
	for i := range records {
		r := records[i]
		row := storedRecord{Key: r.Key(), PlayerID: r.PlayerID, Season: r.Season, Record: r}
		if err := s.store.TxUpsert(tx, row.Key, &row); err != nil {
			metrics.RecordErrorByComponent("repository", "write")
			return fmt.Errorf("upsert %s: %w", row.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordErrorByComponent("repository", "commit")
		return fmt.Errorf("commit records: %w", err)
	}
	metrics.UpdateStoreRecordsTotal(s.countLocked())
	return nil
}

// SeasonHistory implements Store.SeasonHistory.
func (s *BadgerStore) SeasonHistory(_ context.Context, playerID string) ([]model.SeasonRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("season_history", float64(time.Since(start).Milliseconds()))
	}()

	out, err := s.find(badgerhold.Where("PlayerID").Eq(playerID).Index("PlayerID"))
	if err != nil {
		return nil, err
	}
	sortHistory(out)
	return out, nil
}

// LeagueSeason implements Store.LeagueSeason.
func (s *BadgerStore) LeagueSeason(_ context.Context, season int) ([]model.SeasonRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("league_season", float64(time.Since(start).Milliseconds()))
	}()

	out, err := s.find(badgerhold.Where("Season").Eq(season).Index("Season"))
	if err != nil {
		return nil, err
	}
	sortLeague(out)
	return out, nil
}

// Players implements Store.Players.
func (s *BadgerStore) Players(ctx context.Context, season int) ([]string, error) {
	records, err := s.LeagueSeason(ctx, season)
	if err != nil {
		return nil, err
	}
	return playerIDs(records), nil
}

// Seasons implements Store.Seasons.
func (s *BadgerStore) Seasons(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	seen := make(map[int]struct{})
	err := s.store.ForEach(&badgerhold.Query{}, func(row *storedRecord) error {
		seen[row.Season] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan seasons: %w", err)
	}
	out := make([]int, 0, len(seen))
	for season := range seen {
		out = append(out, season)
	}
	sort.Ints(out)
	return out, nil
}

// Count implements Store.Count. A failed count reads as zero.
func (s *BadgerStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return s.countLocked()
}

func (s *BadgerStore) countLocked() int {
	n, err := s.store.Count(&storedRecord{}, &badgerhold.Query{})
	if err != nil {
		metrics.RecordErrorByComponent("repository", "count")
		return 0
	}
	return int(n)
}

func (s *BadgerStore) find(q *badgerhold.Query) ([]model.SeasonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var rows []storedRecord
	if err := s.store.Find(&rows, q); err != nil {
		metrics.RecordErrorByComponent("repository", "read")
		return nil, fmt.Errorf("find records: %w", err)
	}
	out := make([]model.SeasonRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].Record
	}
	return out, nil
}

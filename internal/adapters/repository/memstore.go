package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/battrend/internal/domain/model"
	"github.com/okian/battrend/pkg/metrics"
)

// MemoryStore keeps records in maps indexed by key, player and season.
type MemoryStore struct {
	mu       sync.RWMutex
	byKey    map[string]model.SeasonRecord
	byPlayer map[string]map[string]struct{}
	bySeason map[int]map[string]struct{}
	closed   bool

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	wg                    sync.WaitGroup
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store. The metrics updater stops when ctx
// is done or the store is closed.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byKey:                 make(map[string]model.SeasonRecord),
		byPlayer:              make(map[string]map[string]struct{}),
		bySeason:              make(map[int]map[string]struct{}),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreRecordsTotal(s.Count(ctx))
			}
		}
	}()
}

// Close stops the background updater. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.stopChan)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, records ...model.SeasonRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("put", float64(time.Since(start).Milliseconds()))
	}()

	if err := validateAll(records); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for i := range records {
		r := records[i]
		key := r.Key()
		s.byKey[key] = r
		index(s.byPlayer, r.PlayerID, key)
		index(s.bySeason, r.Season, key)
	}
	return nil
}

func index[K comparable](m map[K]map[string]struct{}, k K, key string) {
	set, ok := m[k]
	if !ok {
		set = make(map[string]struct{})
		m[k] = set
	}
	set[key] = struct{}{}
}

// SeasonHistory implements Store.SeasonHistory.
func (s *MemoryStore) SeasonHistory(_ context.Context, playerID string) ([]model.SeasonRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("season_history", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := s.collect(s.byPlayer[playerID])
	sortHistory(out)
	return out, nil
}

// LeagueSeason implements Store.LeagueSeason.
func (s *MemoryStore) LeagueSeason(_ context.Context, season int) ([]model.SeasonRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("league_season", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := s.collect(s.bySeason[season])
	sortLeague(out)
	return out, nil
}

// Players implements Store.Players.
func (s *MemoryStore) Players(ctx context.Context, season int) ([]string, error) {
	records, err := s.LeagueSeason(ctx, season)
	if err != nil {
		return nil, err
	}
	return playerIDs(records), nil
}

// Seasons implements Store.Seasons.
func (s *MemoryStore) Seasons(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]int, 0, len(s.bySeason))
	for season := range s.bySeason {
		out = append(out, season)
	}
	sort.Ints(out)
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

func (s *MemoryStore) collect(keys map[string]struct{}) []model.SeasonRecord {
	out := make([]model.SeasonRecord, 0, len(keys))
	for key := range keys {
		out = append(out, s.byKey[key])
	}
	return out
}

func sortHistory(rs []model.SeasonRecord) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Season != rs[j].Season {
			return rs[i].Season < rs[j].Season
		}
		return rs[i].Team < rs[j].Team
	})
}

func sortLeague(rs []model.SeasonRecord) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].PlayerID != rs[j].PlayerID {
			return rs[i].PlayerID < rs[j].PlayerID
		}
		return rs[i].Team < rs[j].Team
	})
}

// playerIDs returns the distinct ids of records sorted by player.
func playerIDs(rs []model.SeasonRecord) []string {
	out := make([]string, 0, len(rs))
	for i := range rs {
		if n := len(out); n == 0 || out[n-1] != rs[i].PlayerID {
			out = append(out, rs[i].PlayerID)
		}
	}
	return out
}

// Package repository persists season records and serves the reads the report
// assembler needs.
package repository

import (
	"context"

	"github.com/okian/battrend/internal/domain/model"
)

// Store provides read/write access to season records. Implementations are safe
// for concurrent use.
type Store interface {
	// Put validates and upserts records keyed by (player, season, team). Either
	// every record is written or none is.
	Put(ctx context.Context, records ...model.SeasonRecord) error

	// SeasonHistory returns every record of a player ordered by season, then
	// team. An unknown player yields an empty slice.
	SeasonHistory(ctx context.Context, playerID string) ([]model.SeasonRecord, error)

	// LeagueSeason returns every record of season ordered by player, then team.
	LeagueSeason(ctx context.Context, season int) ([]model.SeasonRecord, error)

	// Players returns the distinct player ids with a record in season, sorted.
	Players(ctx context.Context, season int) ([]string, error)

	// Seasons returns the distinct seasons on record, ascending.
	Seasons(ctx context.Context) ([]int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	Close() error
}

// LatestSeason returns the most recent season in s.
func LatestSeason(ctx context.Context, s Store) (int, error) {
	seasons, err := s.Seasons(ctx)
	if err != nil {
		return 0, err
	}
	if len(seasons) == 0 {
		return 0, ErrEmpty
	}
	return seasons[len(seasons)-1], nil
}

func validateAll(records []model.SeasonRecord) error {
	for i := range records {
		if err := model.Validate(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

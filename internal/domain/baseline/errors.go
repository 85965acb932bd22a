package baseline

import (
	"errors"
	"fmt"
)

// Sentinel kinds for baseline errors.
var (
	ErrInsufficientLeagueData = errors.New("insufficient league data")
	ErrNilSource              = errors.New("league source is nil")
)

// InsufficientLeagueDataError reports that neither the requested season nor any
// season within the lookback had enough qualifying players.
type InsufficientLeagueDataError struct {
	Season   int
	Lookback int
	// Best is the largest qualifying count seen, at BestSeason.
	Best       int
	BestSeason int
	MinSample  int
}

func (e *InsufficientLeagueDataError) Error() string {
	return fmt.Sprintf("%s: season %d (lookback %d): best %d qualifying in %d, need %d",
		ErrInsufficientLeagueData, e.Season, e.Lookback, e.Best, e.BestSeason, e.MinSample)
}

// Is matches ErrInsufficientLeagueData.
func (e *InsufficientLeagueDataError) Is(target error) bool {
	return target == ErrInsufficientLeagueData
}

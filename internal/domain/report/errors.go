package report

import (
	"errors"
	"fmt"
)

// Sentinel kinds for report errors.
var (
	ErrNoPlayerHistory = errors.New("no player history")
	ErrSeasonNotFound  = errors.New("season not found in player history")
	ErrNilReader       = errors.New("history reader is nil")
)

// NoPlayerHistoryError reports a player with zero season records.
type NoPlayerHistoryError struct {
	PlayerID string
}

func (e *NoPlayerHistoryError) Error() string {
	return fmt.Sprintf("%s: player %q", ErrNoPlayerHistory, e.PlayerID)
}

// Is matches ErrNoPlayerHistory.
func (e *NoPlayerHistoryError) Is(target error) bool {
	return target == ErrNoPlayerHistory
}

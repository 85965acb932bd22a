// Package synth generates a synthetic league of season records and drives a
// running service with it: submit, wait for ingestion, then read the digest
// back and check that planted regression candidates were flagged.
package synth

import (
	"errors"
	"fmt"
	"time"
)

// Defaults.
const (
	DefaultPlayers    = 120
	DefaultSeasons    = 5
	DefaultLastSeason = 2024
	DefaultBatchSize  = 100
	DefaultWorkers    = 4
	DefaultTimeout    = 30 * time.Second
	DefaultIngestWait = 2 * time.Minute
)

// Sentinel kinds for synth errors.
var (
	ErrInvalidConfig = errors.New("invalid synth config")
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrRejected      = errors.New("batch rejected")
	ErrIngestTimeout = errors.New("timed out waiting for ingestion")
	ErrVerification  = errors.New("verification failed")
)

// Config holds configuration for a synthetic run.
type Config struct {
	BaseURL    string        // Base URL of the service; empty skips submission
	Players    int           // Number of players in the league
	Seasons    int           // Seasons per player, ending at LastSeason
	LastSeason int           // Most recent season generated
	Seed       uint64        // Seed for the generator; equal seeds give equal leagues
	BatchSize  int           // Records per POST /records
	Workers    int           // Concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	IngestWait time.Duration // How long to wait for the service to store everything
	OutputFile string        // Write the league here (.json or .yaml) when set
}

// NewConfig returns a config with defaults applied.
func NewConfig() Config {
	return Config{
		Players:    DefaultPlayers,
		Seasons:    DefaultSeasons,
		LastSeason: DefaultLastSeason,
		Seed:       1,
		BatchSize:  DefaultBatchSize,
		Workers:    DefaultWorkers,
		Timeout:    DefaultTimeout,
		IngestWait: DefaultIngestWait,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case c.Players <= 0:
		return fmt.Errorf("%w: players must be positive", ErrInvalidConfig)
	case c.Seasons < 2 || c.Seasons > 20:
		return fmt.Errorf("%w: seasons must be between 2 and 20", ErrInvalidConfig)
	case c.LastSeason-c.Seasons+1 < 1871:
		return fmt.Errorf("%w: first season %d predates 1871", ErrInvalidConfig, c.LastSeason-c.Seasons+1)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Players          int
	Records          int
	Batches          int
	BatchesAccepted  int
	BatchesDuplicate int
	BatchesRetried   int
	Stored           int
	Season           int
	Evaluated        int
	Failures         int
	Alerts           int
	Counts           map[string]int
	Lucky            int
	LuckyFlagged     int
	Unlucky          int
	UnluckyFlagged   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

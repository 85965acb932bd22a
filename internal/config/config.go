// Package config defines service configuration and the engine tunables it
// carries, and loads them from defaults, an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/robfig/cron/v3"

	"github.com/okian/battrend/internal/domain/tuning"
)

var (
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, environment and decode failures while loading.
	ErrLoadConfig = errors.New("load config failed")
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log lines to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreKind selects the season store: memory or badger.
	StoreKind string `koanf:"store_kind"`
	// StorePath is the badger directory. Empty keeps badger in memory.
	StorePath string `koanf:"store_path"`

	// WorkerCount bounds concurrent player evaluations in a batch scan.
	WorkerCount int `koanf:"worker_count"`
	// IngestWorkers is the number of workers draining the ingest queue.
	IngestWorkers int `koanf:"ingest_workers"`
	// QueueSize bounds the in-memory ingest queue, in batches.
	QueueSize int `koanf:"queue_size"`
	// DedupeSize is how many batch idempotency keys are remembered; 0 keeps all.
	DedupeSize int `koanf:"dedupe_size"`

	// RefreshSpec is the cron schedule of the digest refresh. Empty disables it.
	RefreshSpec string `koanf:"refresh_spec"`
	// RefreshSeason is the season the refresh scans; 0 means the latest stored.
	RefreshSeason int `koanf:"refresh_season"`

	// Engine holds every analytics threshold, weight and floor.
	Engine tuning.Config `koanf:"engine"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		StoreKind:     StoreMemory,
		WorkerCount:   runtime.NumCPU() * 2,
		IngestWorkers: 2,
		QueueSize:     1024,
		DedupeSize:    10000,
		RefreshSpec:   "@every 6h",
		Engine:        tuning.Default(),
	}
}

// Validate checks service settings and the engine tunables.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreKind {
	case StoreMemory, StoreBadger:
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalidConfig, c.StoreKind)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.IngestWorkers <= 0 {
		return fmt.Errorf("%w: ingest_workers must be positive, got %d", ErrInvalidConfig, c.IngestWorkers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	}
	if c.RefreshSeason < 0 {
		return fmt.Errorf("%w: refresh_season must not be negative", ErrInvalidConfig)
	}
	if c.RefreshSpec != "" {
		if _, err := cron.ParseStandard(c.RefreshSpec); err != nil {
			return fmt.Errorf("%w: refresh_spec %q: %v", ErrInvalidConfig, c.RefreshSpec, err)
		}
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

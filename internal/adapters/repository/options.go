package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// BadgerOption configures a BadgerStore.
type BadgerOption func(*badgerConfig)

type badgerConfig struct {
	path     string
	inMemory bool
}

// WithPath stores data under dir.
func WithPath(dir string) BadgerOption {
	return func(c *badgerConfig) {
		c.path = dir
	}
}

// WithInMemory keeps the badger database in memory only.
func WithInMemory() BadgerOption {
	return func(c *badgerConfig) {
		c.inMemory = true
	}
}

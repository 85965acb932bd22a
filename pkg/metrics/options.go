package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace replaces the "battrend" namespace. Empty is ignored.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "engine" subsystem. Empty is ignored.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithPrefix is prepended to every metric name after the subsystem.
func WithPrefix(prefix string) Option {
	return func(m *Manager) { m.prefix = prefix }
}

// WithLatencyBuckets sets the millisecond buckets used by report, worker,
// store and GC latency histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithSecondsBuckets sets the buckets of the batch and HTTP duration histograms.
func WithSecondsBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.secondsBuckets = buckets
		}
	}
}

// WithConstLabels attaches labels such as the deployment name to every metric.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		for k, v := range labels {
			m.constLabels[k] = v
		}
	}
}

// WithEnabled turns recording on or off. A disabled manager still registers
// its collectors so scrapes see zero values.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) { m.enabled = enabled }
}

// WithRegisterer registers the collectors somewhere other than the default
// Prometheus registerer.
func WithRegisterer(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

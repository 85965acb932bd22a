package dedupe

// Option configures an InMemoryDeduper.
type Option func(*InMemoryDeduper)

// WithMaxSize sets how many keys are kept. Zero or less keeps every key.
func WithMaxSize(maxSize int) Option {
	return func(d *InMemoryDeduper) {
		d.maxSize = maxSize
	}
}

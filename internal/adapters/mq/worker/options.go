package worker

import (
	"github.com/okian/battrend/pkg/logger"
)

// Option configures an Ingester.
type Option func(*Ingester)

// WithName tags the ingester's log lines.
func WithName(name string) Option {
	return func(w *Ingester) { w.name = name }
}

// WithLogger replaces the default "ingest" logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Ingester) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnDone registers a callback run after every batch with the write
// error, if any.
func WithOnDone(fn DoneFunc) Option {
	return func(w *Ingester) { w.onDone = fn }
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithConcurrency bounds the players evaluated at once.
func WithConcurrency(n int) EvaluatorOption {
	return func(e *Evaluator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEvaluatorLogger sets the evaluator's logger.
func WithEvaluatorLogger(l logger.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

package report

import (
	"github.com/okian/battrend/internal/domain/role"
	"github.com/okian/battrend/internal/domain/tuning"
	"github.com/okian/battrend/pkg/logger"
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithTuning replaces the default engine tuning.
func WithTuning(cfg tuning.Config) Option {
	return func(a *Assembler) {
		a.tuning = cfg
	}
}

// WithRules replaces the role rule table.
func WithRules(rules []role.Rule) Option {
	return func(a *Assembler) {
		if len(rules) > 0 {
			a.rules = rules
		}
	}
}

// WithLogger sets the logger used for stage summaries.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

package conflictmap

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Option is a function that configures an Analyzer
type Option func(*Analyzer) error

// WithConfig replaces the default configuration. The value is copied, so
// later changes by the caller do not affect the Analyzer.
func WithConfig(cfg config.Config) Option {
	return func(a *Analyzer) error {
		a.cfg = cfg.Clone()
		return nil
	}
}

// WithThreshold overrides the configured threshold
func WithThreshold(threshold float64) Option {
	return func(a *Analyzer) error {
		a.cfg = a.cfg.WithThreshold(threshold)
		return nil
	}
}

// WithReasoner sets the backend that validates consolidated conflicts.
// Without one, validation is skipped and every record is marked skipped.
func WithReasoner(r validation.Reasoner) Option {
	return func(a *Analyzer) error {
		if r == nil {
			return errors.NewConfigError("reasoner", "reasoner must not be nil", nil)
		}
		a.reasoner = r
		return nil
	}
}

// WithSkipValidation disables the validation stage even when a reasoner is set
func WithSkipValidation() Option {
	return func(a *Analyzer) error {
		a.skipValidation = true
		return nil
	}
}

// WithLogger sets the logger used by every stage
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = logger
		return nil
	}
}

// WithClock sets the time source used for run timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) error {
		a.now = now
		return nil
	}
}

// WithPolitician names the official the run is about. When unset, the
// politician of the first vote record that names one is used.
func WithPolitician(name string) Option {
	return func(a *Analyzer) error {
		a.politician = name
		return nil
	}
}

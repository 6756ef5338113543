package engine

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/store"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

const defaultMaxPasses = 32

// Option customises a Form.
type Option func(*Form)

// WithRegistry injects the tag registry. Defaults to registry.Default().
func WithRegistry(reg *registry.Registry) Option {
	return func(f *Form) {
		if reg != nil {
			f.registry = reg
		}
	}
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithEvaluator replaces the showIf evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(f *Form) {
		if evaluator != nil {
			f.evaluator = evaluator
		}
	}
}

// WithStore supplies a pre-seeded value store, e.g. restored from a draft.
// The form takes ownership and closes it on Close.
func WithStore(s *store.Store) Option {
	return func(f *Form) {
		if s != nil {
			f.store = s
		}
	}
}

// WithMaxPasses bounds how many cascading re-evaluation rounds a single call
// may trigger before the form gives up and logs an oscillation.
func WithMaxPasses(n int) Option {
	return func(f *Form) {
		if n > 0 {
			f.maxPasses = n
		}
	}
}

// WithWarnings seeds per-field warning messages shown next to leaves.
func WithWarnings(warnings map[string]string) Option {
	return func(f *Form) {
		f.warnings = copyMessages(warnings)
	}
}

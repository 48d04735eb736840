package engine

import (
	"time"

	"github.com/okian/spdscore/internal/domain/catalog"
	"github.com/okian/spdscore/pkg/logger"
)

const defaultParallelism = 4

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the default catalog.
func WithCatalog(c catalog.Catalog) Option {
	return func(e *Engine) { e.cat = c }
}

// WithParallelism bounds the per-person work running at once within a stage.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

package worker

import (
	"github.com/okian/spdscore/pkg/logger"
)

// Option applies a configuration option to a worker or pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func apply(defaultName string, opts []Option) settings {
	s := settings{name: defaultName, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

package reconcile

import (
	"log/slog"

	"github.com/dshills/redline/internal/engine/materialize"
)

type config struct {
	logger   *slog.Logger
	listener Listener
	mat      *materialize.Materializer
}

// Option configures a Reconciler or a Loader.
type Option func(*config)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithListener sets the listener notified of region boundaries. A Loader
// installs its own listener and ignores this option.
func WithListener(l Listener) Option {
	return func(c *config) {
		c.listener = l
	}
}

// WithMaterializer sets the materializer a Loader uses for deletions.
func WithMaterializer(m *materialize.Materializer) Option {
	return func(c *config) {
		if m != nil {
			c.mat = m
		}
	}
}

func newConfig(opts []Option) config {
	c := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

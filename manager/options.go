package manager

import (
	"log/slog"

	"github.com/miriambudayr/tierq/backoff"
	"github.com/miriambudayr/tierq/dlq"
	"github.com/miriambudayr/tierq/ext"
	"github.com/miriambudayr/tierq/middleware"
	"github.com/miriambudayr/tierq/worker"
)

type config struct {
	logger       *slog.Logger
	extensions   []ext.Extension
	executorOpts []worker.ExecutorOption
	dlqStore     dlq.Store
}

// Option configures a Manager.
type Option func(*config)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithExtension registers an extension with the manager.
func WithExtension(e ext.Extension) Option {
	return func(c *config) { c.extensions = append(c.extensions, e) }
}

// WithBackoff sets the retry backoff strategy.
// If not set, backoff.DefaultStrategy() (exponential with equal jitter)
// is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(c *config) {
		c.executorOpts = append(c.executorOpts, worker.WithBackoff(b))
	}
}

// WithMiddleware adds middleware wrapped around every execution attempt.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *config) {
		c.executorOpts = append(c.executorOpts, worker.WithMiddleware(mws...))
	}
}

// WithSleep replaces the executor's backoff sleep primitive. Tests use
// this to run retries without real delays.
func WithSleep(s worker.SleepFunc) Option {
	return func(c *config) {
		c.executorOpts = append(c.executorOpts, worker.WithSleep(s))
	}
}

// WithDLQStore sets the dead letter queue archive. Defaults to an
// in-memory store.
func WithDLQStore(s dlq.Store) Option {
	return func(c *config) { c.dlqStore = s }
}

func applyOptions(opts []Option) *config {
	c := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

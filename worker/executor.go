// Package worker provides the retry executor: it runs a job's callback
// through the middleware chain under the job's cancellation signal,
// retrying failures with backoff up to an attempt budget.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/backoff"
	"github.com/miriambudayr/tierq/ext"
	"github.com/miriambudayr/tierq/job"
	"github.com/miriambudayr/tierq/middleware"
)

// SleepFunc suspends for the given duration, returning early with the
// context's error if it is cancelled first. Injectable for tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the default SleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executor runs a single job through middleware and its work callback,
// retrying failed attempts with backoff until the attempt budget is
// exhausted. The job's cancellation signal is checked before every
// attempt; once triggered, the executor fails with the distinguished
// cancellation fault and never attempts again.
type Executor struct {
	strategy   backoff.Strategy
	extensions *ext.Registry
	mw         middleware.Middleware
	logger     *slog.Logger
	sleep      SleepFunc
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithBackoff sets the retry delay strategy.
// If not set, backoff.DefaultStrategy() (exponential with equal jitter)
// is used.
func WithBackoff(s backoff.Strategy) ExecutorOption {
	return func(e *Executor) { e.strategy = s }
}

// WithMiddleware adds middleware wrapped around every execution attempt.
func WithMiddleware(mws ...middleware.Middleware) ExecutorOption {
	return func(e *Executor) { e.mw = middleware.Chain(mws...) }
}

// WithSleep replaces the backoff sleep primitive. Tests use this to
// observe delays without waiting for them.
func WithSleep(s SleepFunc) ExecutorOption {
	return func(e *Executor) { e.sleep = s }
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(extensions *ext.Registry, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		strategy:   backoff.DefaultStrategy(),
		extensions: extensions,
		mw:         middleware.Chain(),
		logger:     logger,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the job's callback with retries.
//
// Before every attempt the job's cancellation signal is checked; if it
// is already triggered, Execute fails immediately with a fault wrapping
// tierq.ErrCancelled, without attempting. On a failed attempt the
// attempt counter is incremented and checked against maxAttempts
// post-increment, so maxAttempts of 0 and 1 both make the first failure
// terminal; only maxAttempts >= 2 permits a retry. Once exhausted, the
// original error is returned unchanged.
//
// The callback receives a context that is cancelled when either the
// caller's ctx or the job's signal fires.
func (e *Executor) Execute(ctx context.Context, j *job.Job, maxAttempts int) error {
	signal := j.Signal()

	// Fold the cancellation signal into the execution context so the
	// callback and any middleware observe both the caller's deadline
	// and the job's token through one context.
	execCtx, stop := context.WithCancel(ctx)
	defer stop()
	unbind := context.AfterFunc(signal, stop)
	defer unbind()

	terminal := func(ctx context.Context) error {
		return j.Invoke(ctx)
	}

	attempt := 0
	for {
		if signal.Err() != nil {
			return fmt.Errorf("job %s: %w", j.ID(), tierq.ErrCancelled)
		}

		err := e.mw(execCtx, j, terminal)
		if err == nil {
			return nil
		}

		attempt++
		if attempt >= maxAttempts {
			// Exhausted: re-raise the original fault unchanged.
			return err
		}

		delay := e.strategy.Delay(attempt)
		e.extensions.EmitJobRetrying(ctx, j.Snapshot(), attempt, delay)
		e.logger.Info("job scheduled for retry",
			slog.String("job_id", j.ID().String()),
			slog.String("job_name", j.Name()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		if sleepErr := e.sleep(execCtx, delay); sleepErr != nil {
			if signal.Err() != nil {
				return fmt.Errorf("job %s: %w", j.ID(), tierq.ErrCancelled)
			}
			return sleepErr
		}
	}
}

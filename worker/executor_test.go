package worker_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/backoff"
	"github.com/miriambudayr/tierq/ext"
	"github.com/miriambudayr/tierq/job"
	"github.com/miriambudayr/tierq/middleware"
	"github.com/miriambudayr/tierq/worker"
)

var errBoom = errors.New("boom")

// fastSleep skips real delays but keeps the contract of aborting on a
// cancelled context.
func fastSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newExecutor(opts ...worker.ExecutorOption) *worker.Executor {
	base := []worker.ExecutorOption{worker.WithSleep(fastSleep)}
	return worker.NewExecutor(ext.NewRegistry(slog.Default()), slog.Default(), append(base, opts...)...)
}

func TestExecute_Success_NoRetry(t *testing.T) {
	var calls atomic.Int32
	j := job.New("ok", tierq.PriorityHigh, func(_ context.Context) error {
		calls.Add(1)
		return nil
	})

	if err := newExecutor().Execute(context.Background(), j, 3); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("callback invoked %d times, want 1", calls.Load())
	}
}

func TestExecute_AlwaysFails_ExactlyMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	j := job.New("always-fails", tierq.PriorityHigh, func(_ context.Context) error {
		calls.Add(1)
		return errBoom
	})

	err := newExecutor().Execute(context.Background(), j, 2)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Execute = %v, want original %v", err, errBoom)
	}
	if calls.Load() != 2 {
		t.Errorf("callback invoked %d times, want 2", calls.Load())
	}
}

// maxAttempts of 0 and 1 both mean the first failure is terminal: the
// attempt counter is checked after incrementing.
func TestExecute_ZeroAndOneAttemptBudget(t *testing.T) {
	for _, maxAttempts := range []int{0, 1} {
		var calls atomic.Int32
		j := job.New("no-retry", tierq.PriorityLow, func(_ context.Context) error {
			calls.Add(1)
			return errBoom
		})

		err := newExecutor().Execute(context.Background(), j, maxAttempts)
		if !errors.Is(err, errBoom) {
			t.Fatalf("maxAttempts=%d: Execute = %v, want %v", maxAttempts, err, errBoom)
		}
		if calls.Load() != 1 {
			t.Errorf("maxAttempts=%d: callback invoked %d times, want 1", maxAttempts, calls.Load())
		}
	}
}

func TestExecute_FailOnceThenSucceed(t *testing.T) {
	var calls atomic.Int32
	j := job.New("flaky", tierq.PriorityMedium, func(_ context.Context) error {
		if calls.Add(1) == 1 {
			return errBoom
		}
		return nil
	})

	if err := newExecutor().Execute(context.Background(), j, 2); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("callback invoked %d times, want 2", calls.Load())
	}
}

func TestExecute_CancelledBeforeFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	j := job.New("cancelled", tierq.PriorityHigh, func(_ context.Context) error {
		calls.Add(1)
		return nil
	})
	j.Trigger()

	err := newExecutor().Execute(context.Background(), j, 3)
	if !errors.Is(err, tierq.ErrCancelled) {
		t.Fatalf("Execute = %v, want ErrCancelled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("callback invoked %d times, want 0", calls.Load())
	}
}

// Cancellation landing while an attempt is in flight stops the retry
// loop at the next pre-attempt check.
func TestExecute_CancelledBetweenAttempts(t *testing.T) {
	var calls atomic.Int32
	var j *job.Job
	j = job.New("cancel-mid-flight", tierq.PriorityHigh, func(_ context.Context) error {
		calls.Add(1)
		j.Trigger() // external cancel arrives during the attempt
		return errBoom
	})

	err := newExecutor().Execute(context.Background(), j, 5)
	if !errors.Is(err, tierq.ErrCancelled) {
		t.Fatalf("Execute = %v, want ErrCancelled", err)
	}
	if calls.Load() != 1 {
		t.Errorf("callback invoked %d times, want 1", calls.Load())
	}
}

func TestExecute_CallbackObservesSignal(t *testing.T) {
	var sawCancel atomic.Bool
	var j *job.Job
	j = job.New("observer", tierq.PriorityMedium, func(ctx context.Context) error {
		j.Trigger()
		<-ctx.Done() // signal folded into the execution context
		sawCancel.Store(true)
		return ctx.Err()
	})

	err := newExecutor().Execute(context.Background(), j, 3)
	if !errors.Is(err, tierq.ErrCancelled) {
		t.Fatalf("Execute = %v, want ErrCancelled", err)
	}
	if !sawCancel.Load() {
		t.Error("callback did not observe the triggered signal")
	}
}

// Each inter-attempt delay must be strictly greater than the previous,
// despite jitter.
func TestExecute_BackoffDelaysGrowMonotonically(t *testing.T) {
	var delays []time.Duration
	recordSleep := func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}

	j := job.New("backoff", tierq.PriorityLow, func(_ context.Context) error {
		return errBoom
	})

	e := worker.NewExecutor(ext.NewRegistry(slog.Default()), slog.Default(),
		worker.WithBackoff(backoff.NewExponentialEqualJitter(10*time.Millisecond)),
		worker.WithSleep(recordSleep),
	)
	if err := e.Execute(context.Background(), j, 4); !errors.Is(err, errBoom) {
		t.Fatalf("Execute = %v, want %v", err, errBoom)
	}

	if len(delays) != 3 {
		t.Fatalf("recorded %d delays, want 3", len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] <= delays[i-1] {
			t.Errorf("delay[%d] = %v, not strictly greater than delay[%d] = %v", i, delays[i], i-1, delays[i-1])
		}
	}
}

// retryRecorder counts JobRetrying events.
type retryRecorder struct {
	attempts []int
}

func (r *retryRecorder) Name() string { return "retry-recorder" }

func (r *retryRecorder) OnJobRetrying(_ context.Context, _ job.Snapshot, attempt int, _ time.Duration) error {
	r.attempts = append(r.attempts, attempt)
	return nil
}

func TestExecute_EmitsRetryingEvents(t *testing.T) {
	reg := ext.NewRegistry(slog.Default())
	rec := &retryRecorder{}
	reg.Register(rec)

	j := job.New("eventful", tierq.PriorityHigh, func(_ context.Context) error {
		return errBoom
	})

	e := worker.NewExecutor(reg, slog.Default(), worker.WithSleep(fastSleep))
	_ = e.Execute(context.Background(), j, 3)

	want := []int{1, 2}
	if len(rec.attempts) != len(want) {
		t.Fatalf("retrying events = %v, want %v", rec.attempts, want)
	}
	for i := range want {
		if rec.attempts[i] != want[i] {
			t.Errorf("attempts[%d] = %d, want %d", i, rec.attempts[i], want[i])
		}
	}
}

func TestExecute_MiddlewareRunsPerAttempt(t *testing.T) {
	var wrapped atomic.Int32
	counting := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		wrapped.Add(1)
		return next(ctx)
	}

	j := job.New("wrapped", tierq.PriorityMedium, func(_ context.Context) error {
		return errBoom
	})

	e := newExecutor(worker.WithMiddleware(counting))
	_ = e.Execute(context.Background(), j, 3)

	if wrapped.Load() != 3 {
		t.Errorf("middleware invoked %d times, want 3", wrapped.Load())
	}
}

// A panicking callback passes through Recover middleware as an ordinary
// failure and consumes an attempt.
func TestExecute_PanicRecoveredAndRetried(t *testing.T) {
	var calls atomic.Int32
	j := job.New("panicky", tierq.PriorityHigh, func(_ context.Context) error {
		if calls.Add(1) == 1 {
			panic("transient explosion")
		}
		return nil
	})

	e := newExecutor(worker.WithMiddleware(middleware.Recover(slog.Default())))
	if err := e.Execute(context.Background(), j, 2); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("callback invoked %d times, want 2", calls.Load())
	}
}

func TestExecute_CallerContextAbortsSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	j := job.New("deadline", tierq.PriorityLow, func(_ context.Context) error {
		calls.Add(1)
		cancel() // caller gives up while the executor would back off
		return errBoom
	})

	e := worker.NewExecutor(ext.NewRegistry(slog.Default()), slog.Default())
	err := e.Execute(ctx, j, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute = %v, want context.Canceled", err)
	}
	if calls.Load() != 1 {
		t.Errorf("callback invoked %d times, want 1", calls.Load())
	}
}

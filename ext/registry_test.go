package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/ext"
	"github.com/miriambudayr/tierq/job"
)

// recorder implements every job hook and records the calls it receives.
type recorder struct {
	created   int
	started   int
	completed int
	failed    int
	retrying  int
	cancelled int
	removed   int
	lastErr   error
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnJobCreated(_ context.Context, _ job.Snapshot) error {
	r.created++
	return nil
}

func (r *recorder) OnJobStarted(_ context.Context, _ job.Snapshot) error {
	r.started++
	return nil
}

func (r *recorder) OnJobCompleted(_ context.Context, _ job.Snapshot, _ time.Duration) error {
	r.completed++
	return nil
}

func (r *recorder) OnJobFailed(_ context.Context, _ job.Snapshot, err error) error {
	r.failed++
	r.lastErr = err
	return nil
}

func (r *recorder) OnJobRetrying(_ context.Context, _ job.Snapshot, _ int, _ time.Duration) error {
	r.retrying++
	return nil
}

func (r *recorder) OnJobCancelled(_ context.Context, _ job.Snapshot) error {
	r.cancelled++
	return nil
}

func (r *recorder) OnJobRemoved(_ context.Context, _ job.Snapshot) error {
	r.removed++
	return nil
}

// startedOnly opts in to a single hook.
type startedOnly struct {
	started int
}

func (s *startedOnly) Name() string { return "started-only" }

func (s *startedOnly) OnJobStarted(_ context.Context, _ job.Snapshot) error {
	s.started++
	return nil
}

// failing always returns an error from its hook.
type failing struct{}

func (f *failing) Name() string { return "failing" }

func (f *failing) OnJobStarted(_ context.Context, _ job.Snapshot) error {
	return errors.New("hook blew up")
}

func testSnapshot() job.Snapshot {
	j := job.New("snap", tierq.PriorityHigh, func(_ context.Context) error { return nil })
	return j.Snapshot()
}

func TestRegistry_FansOutToAllHooks(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	rec := &recorder{}
	r.Register(rec)

	ctx := context.Background()
	snap := testSnapshot()
	jobErr := errors.New("boom")

	r.EmitJobCreated(ctx, snap)
	r.EmitJobStarted(ctx, snap)
	r.EmitJobCompleted(ctx, snap, time.Second)
	r.EmitJobFailed(ctx, snap, jobErr)
	r.EmitJobRetrying(ctx, snap, 1, time.Second)
	r.EmitJobCancelled(ctx, snap)
	r.EmitJobRemoved(ctx, snap)

	if rec.created != 1 || rec.started != 1 || rec.completed != 1 ||
		rec.failed != 1 || rec.retrying != 1 || rec.cancelled != 1 || rec.removed != 1 {
		t.Errorf("expected one call per hook, got %+v", rec)
	}
	if !errors.Is(rec.lastErr, jobErr) {
		t.Errorf("OnJobFailed error = %v, want %v", rec.lastErr, jobErr)
	}
}

func TestRegistry_OnlyNotifiesImplementedHooks(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	so := &startedOnly{}
	r.Register(so)

	ctx := context.Background()
	snap := testSnapshot()

	// None of these should reach the extension.
	r.EmitJobCreated(ctx, snap)
	r.EmitJobCompleted(ctx, snap, time.Second)
	r.EmitJobRemoved(ctx, snap)

	r.EmitJobStarted(ctx, snap)
	if so.started != 1 {
		t.Errorf("started = %d, want 1", so.started)
	}
}

func TestRegistry_HookErrorDoesNotStopFanOut(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&failing{})
	so := &startedOnly{}
	r.Register(so)

	r.EmitJobStarted(context.Background(), testSnapshot())

	if so.started != 1 {
		t.Error("extension after failing hook was not notified")
	}
}

func TestRegistry_Extensions(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&recorder{})
	r.Register(&startedOnly{})

	if got := len(r.Extensions()); got != 2 {
		t.Errorf("Extensions() length = %d, want 2", got)
	}
}

package cron_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/cron"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// submitRecorder counts submissions per entry name.
type submitRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *submitRecorder) submit(_ context.Context, name string, _ tierq.Priority, _ job.WorkFunc) (id.JobID, error) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return id.NewJobID(), nil
}

func (r *submitRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

// firedRecorder records EmitScheduleFired calls.
type firedRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *firedRecorder) EmitScheduleFired(_ context.Context, entryName string, _ id.JobID) {
	r.mu.Lock()
	r.fired = append(r.fired, entryName)
	r.mu.Unlock()
}

func (r *firedRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func noop(_ context.Context) error { return nil }

func TestParseSchedule(t *testing.T) {
	valid := []string{"* * * * *", "*/5 * * * *", "0 3 * * *", "@every 30s", "@hourly"}
	for _, expr := range valid {
		if _, err := cron.ParseSchedule(expr); err != nil {
			t.Errorf("ParseSchedule(%q): %v", expr, err)
		}
	}

	invalid := []string{"", "not a cron", "* * *", "99 * * * *"}
	for _, expr := range invalid {
		if _, err := cron.ParseSchedule(expr); err == nil {
			t.Errorf("ParseSchedule(%q) accepted invalid expression", expr)
		}
	}
}

func TestAdd_Validation(t *testing.T) {
	s := cron.NewScheduler((&submitRecorder{}).submit, nil, slog.Default())

	if _, err := s.Add("bad-priority", "* * * * *", tierq.Priority("urgent"), noop); !errors.Is(err, tierq.ErrInvalidPriority) {
		t.Errorf("Add = %v, want ErrInvalidPriority", err)
	}
	if _, err := s.Add("bad-expr", "every day at noon", tierq.PriorityLow, noop); err == nil {
		t.Error("Add accepted an unparseable expression")
	}
}

func TestScheduler_FiresDueEntries(t *testing.T) {
	rec := &submitRecorder{}
	fired := &firedRecorder{}
	s := cron.NewScheduler(rec.submit, fired, slog.Default(),
		cron.WithTickInterval(5*time.Millisecond),
	)

	// The @every descriptor rounds sub-second delays up to one second,
	// so this fires roughly once per second.
	if _, err := s.Add("heartbeat", "@every 1s", tierq.PriorityHigh, noop); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for rec.count("heartbeat") < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := rec.count("heartbeat"); got < 2 {
		t.Errorf("entry fired %d times, want >= 2", got)
	}
	if fired.count() < 2 {
		t.Errorf("emitter notified %d times, want >= 2", fired.count())
	}

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() = %d, want 1", len(entries))
	}
	if entries[0].LastRunAt == nil {
		t.Error("LastRunAt not stamped after firing")
	}
}

func TestScheduler_DisabledEntryDoesNotFire(t *testing.T) {
	rec := &submitRecorder{}
	s := cron.NewScheduler(rec.submit, nil, slog.Default(),
		cron.WithTickInterval(5*time.Millisecond),
	)

	schedID, err := s.Add("paused", "@every 1s", tierq.PriorityMedium, noop)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.SetEnabled(schedID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	// An enabled sibling on the same schedule proves ticks are flowing.
	if _, err := s.Add("active", "@every 1s", tierq.PriorityMedium, noop); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for rec.count("active") < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if rec.count("active") < 1 {
		t.Fatal("enabled sibling never fired; ticks not flowing")
	}
	if got := rec.count("paused"); got != 0 {
		t.Errorf("disabled entry fired %d times, want 0", got)
	}
}

func TestScheduler_Remove(t *testing.T) {
	rec := &submitRecorder{}
	s := cron.NewScheduler(rec.submit, nil, slog.Default())

	schedID, err := s.Add("short-lived", "@every 1h", tierq.PriorityLow, noop)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(s.Entries()) != 1 {
		t.Fatal("entry not registered")
	}

	s.Remove(schedID)
	if len(s.Entries()) != 0 {
		t.Error("entry still present after Remove")
	}

	// Removing again is a no-op.
	s.Remove(schedID)
}

func TestScheduler_SetEnabledUnknownEntry(t *testing.T) {
	s := cron.NewScheduler((&submitRecorder{}).submit, nil, slog.Default())

	if err := s.SetEnabled(id.NewSchedID(), true); err == nil {
		t.Error("SetEnabled on unknown entry did not fail")
	}
}

package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// SubmitFunc is the callback the scheduler uses to submit due jobs.
// The manager provides the implementation; depending on the signature
// rather than the manager avoids an import cycle.
type SubmitFunc func(ctx context.Context, name string, priority tierq.Priority, fn job.WorkFunc) (id.JobID, error)

// Emitter emits schedule lifecycle events.
// ext.Registry satisfies this interface via EmitScheduleFired.
type Emitter interface {
	EmitScheduleFired(ctx context.Context, entryName string, jobID id.JobID)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.tickInterval = d }
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Scheduler fires cron entries on a tick loop, submitting a fresh job
// for each entry that has come due.
type Scheduler struct {
	submit  SubmitFunc
	emitter Emitter
	logger  *slog.Logger

	tickInterval time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(submit SubmitFunc, emitter Emitter, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		submit:       submit,
		emitter:      emitter,
		logger:       logger,
		tickInterval: 1 * time.Second,
		entries:      make(map[string]*Entry),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a recurring entry. The expression is validated up
// front; the first fire happens at its next occurrence after now.
func (s *Scheduler) Add(name, expr string, priority tierq.Priority, fn job.WorkFunc) (id.SchedID, error) {
	if !priority.Valid() {
		return id.SchedID{}, fmt.Errorf("add schedule %q: priority %q: %w", name, priority, tierq.ErrInvalidPriority)
	}
	sched, err := ParseSchedule(expr)
	if err != nil {
		return id.SchedID{}, fmt.Errorf("add schedule %q: parse %q: %w", name, expr, err)
	}

	e := &Entry{
		ID:        id.NewSchedID(),
		Name:      name,
		Schedule:  expr,
		Priority:  priority,
		Enabled:   true,
		NextRunAt: sched.Next(time.Now().UTC()),
		fn:        fn,
		schedule:  sched,
	}

	s.mu.Lock()
	key := e.ID.String()
	s.entries[key] = e
	s.order = append(s.order, key)
	s.mu.Unlock()

	s.logger.Info("schedule added",
		slog.String("sched_id", key),
		slog.String("name", name),
		slog.String("schedule", expr),
		slog.String("priority", string(priority)),
	)
	return e.ID, nil
}

// Remove deletes an entry. Unknown ids are a no-op.
func (s *Scheduler) Remove(schedID id.SchedID) {
	key := schedID.String()
	s.mu.Lock()
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// SetEnabled enables or disables an entry without removing it.
func (s *Scheduler) SetEnabled(schedID id.SchedID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[schedID.String()]
	if !ok {
		return fmt.Errorf("schedule %s: %w", schedID, tierq.ErrJobNotFound)
	}
	e.Enabled = enabled
	return nil
}

// Entries returns snapshots of all entries in registration order.
func (s *Scheduler) Entries() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snapshot, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.entries[key].snapshot())
	}
	return out
}

// Start launches the tick goroutine.
func (s *Scheduler) Start(_ context.Context) error {
	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("cron scheduler started",
		slog.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop signals the scheduler to stop and waits for the tick goroutine.
func (s *Scheduler) Stop(_ context.Context) error {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("cron scheduler stopped")
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.mu.Lock()
	var due []*Entry
	for _, key := range s.order {
		e := s.entries[key]
		if !e.Enabled || e.NextRunAt.After(now) {
			continue
		}
		// Advance the clock state under the lock; fire outside it.
		last := now
		e.LastRunAt = &last
		e.NextRunAt = e.schedule.Next(now)
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fire(ctx, e)
	}
}

func (s *Scheduler) fire(ctx context.Context, e *Entry) {
	jobID, err := s.submit(ctx, e.Name, e.Priority, e.fn)
	if err != nil {
		s.logger.Error("schedule submit error",
			slog.String("sched_name", e.Name),
			slog.String("error", err.Error()),
		)
		return
	}

	if s.emitter != nil {
		s.emitter.EmitScheduleFired(ctx, e.Name, jobID)
	}
	s.logger.Info("schedule fired",
		slog.String("sched_name", e.Name),
		slog.String("job_id", jobID.String()),
	)
}

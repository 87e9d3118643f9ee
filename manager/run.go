package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/job"
)

// RunJobs drains the priority tiers in strict order, high first. A tier
// is a full barrier: every job dispatched in it reaches a terminal
// state before the next tier begins. Within a tier all jobs still in
// Created state run concurrently with no cap and no ordering guarantee.
//
// Individual job failures never surface here; they settle into the
// job's terminal state and the dead letter queue. RunJobs returns an
// error only for the manager's own invariant violations or when the
// caller's context is cancelled.
func (m *Manager) RunJobs(ctx context.Context, maxAttempts int) error {
	if maxAttempts < 0 {
		return fmt.Errorf("run jobs: negative maxAttempts %d: %w", maxAttempts, tierq.ErrInvariant)
	}

	m.sweep(ctx)

	for _, tier := range tierq.Priorities() {
		batch := m.snapshotTier(tier)
		if len(batch) == 0 {
			continue
		}

		m.logger.Debug("dispatching tier",
			slog.String("priority", string(tier)),
			slog.Int("jobs", len(batch)),
		)

		g, gctx := errgroup.WithContext(ctx)
		for _, j := range batch {
			g.Go(func() error {
				return m.runJob(gctx, j, maxAttempts)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// snapshotTier copies a tier's job list so dispatch can iterate without
// holding the index lock.
func (m *Manager) snapshotTier(tier tierq.Priority) []*job.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := make([]*job.Job, len(m.tiers[tier]))
	copy(batch, m.tiers[tier])
	return batch
}

// sweep destroys cancelled tombstones left in the arena by Cancel.
// They are already out of both views; the arena entry only existed so a
// repeated Cancel could find the job and no-op.
func (m *Manager) sweep(ctx context.Context) {
	m.mu.Lock()
	var swept []job.Snapshot
	for key, j := range m.arena {
		if j.State() == job.StateCancelled && !m.indexed(key) {
			swept = append(swept, j.Snapshot())
			delete(m.arena, key)
		}
	}
	m.mu.Unlock()

	for _, snap := range swept {
		m.extensions.EmitJobRemoved(ctx, snap)
	}
}

// runJob executes one job to a terminal state and removes it. The
// returned error is always an invariant violation; ordinary execution
// faults are absorbed into the job's terminal state.
func (m *Manager) runJob(ctx context.Context, j *job.Job, maxAttempts int) error {
	key := j.ID().String()

	// Cancel may have fired between enqueue and dispatch, or between
	// the tier snapshot and this goroutine starting. The job is then
	// already out of both views; retire its tombstone and skip.
	if j.State() == job.StateCancelled {
		return m.retireCancelled(ctx, j, key)
	}

	if s := j.State(); s != job.StateCreated {
		return fmt.Errorf("dispatch %s: state %s, want %s: %w", key, s, job.StateCreated, tierq.ErrInvariant)
	}

	next, err := j.Apply(job.ActionStart)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", key, err)
	}
	if next == job.StateCancelled {
		// Cancel won the race with dispatch; Start was absorbed.
		return m.retireCancelled(ctx, j, key)
	}

	m.extensions.EmitJobStarted(ctx, j.Snapshot())
	m.logger.Info("job started",
		slog.String("job_id", key),
		slog.String("job_name", j.Name()),
		slog.String("priority", string(j.Priority())),
	)

	start := time.Now()
	execErr := m.executor.Execute(ctx, j, maxAttempts)

	switch {
	case execErr == nil:
		// If the job became Cancelled mid-flight the Complete action is
		// issued anyway and absorbed; the absorbing row replaces a
		// branch here.
		next, err := j.Apply(job.ActionComplete)
		if err != nil {
			return fmt.Errorf("complete %s: %w", key, err)
		}
		if next == job.StateCompleted {
			elapsed := time.Since(start)
			m.extensions.EmitJobCompleted(ctx, j.Snapshot(), elapsed)
			m.logger.Info("job completed",
				slog.String("job_id", key),
				slog.String("job_name", j.Name()),
				slog.Duration("elapsed", elapsed),
			)
		}

	case errors.Is(execErr, tierq.ErrCancelled):
		// The cancellation fault is control flow, not an error. Cancel
		// already transitioned the state and removed the job from the
		// views; anything else is a bug.
		if s := j.State(); s != job.StateCancelled {
			return fmt.Errorf("cancellation fault for %s in state %s: %w", key, s, tierq.ErrInvariant)
		}
		m.logger.Info("job cancelled mid-flight",
			slog.String("job_id", key),
			slog.String("job_name", j.Name()),
		)

	default:
		next, err := j.Apply(job.ActionFail)
		if err != nil {
			return fmt.Errorf("fail %s: %w", key, err)
		}
		if next == job.StateFailed {
			m.extensions.EmitJobFailed(ctx, j.Snapshot(), execErr)
			m.logger.Error("job failed",
				slog.String("job_id", key),
				slog.String("job_name", j.Name()),
				slog.String("error", execErr.Error()),
			)
			attempts := max(maxAttempts, 1)
			if dlqErr := m.deadLetter.Push(ctx, j, execErr, attempts); dlqErr != nil {
				m.logger.Error("dead letter push failed",
					slog.String("job_id", key),
					slog.String("error", dlqErr.Error()),
				)
			}
		}
	}

	if s := j.State(); !s.Terminal() {
		return fmt.Errorf("job %s settled in non-terminal state %s: %w", key, s, tierq.ErrInvariant)
	}

	// Removal is safe even if cancellation already removed the job:
	// unindexing an absent job is a no-op.
	snap := j.Snapshot()
	m.mu.Lock()
	m.destroy(j)
	m.mu.Unlock()
	m.extensions.EmitJobRemoved(ctx, snap)
	return nil
}

// retireCancelled destroys the arena tombstone of a job cancelled
// before its callback ever ran, after checking the views no longer hold
// it.
func (m *Manager) retireCancelled(ctx context.Context, j *job.Job, key string) error {
	m.mu.Lock()
	if m.indexed(key) {
		m.mu.Unlock()
		return fmt.Errorf("cancelled job %s still indexed: %w", key, tierq.ErrInvariant)
	}
	delete(m.arena, key)
	m.mu.Unlock()

	m.extensions.EmitJobRemoved(ctx, j.Snapshot())
	return nil
}

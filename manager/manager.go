package manager

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/dlq"
	"github.com/miriambudayr/tierq/ext"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
	"github.com/miriambudayr/tierq/worker"
)

// Manager owns the job set and exposes creation, cancellation, and the
// scheduling loop. Safe for concurrent use: Cancel may race RunJobs and
// the absorbing Cancelled state plus the shared index lock resolve it.
type Manager struct {
	mu    sync.Mutex
	arena map[string]*job.Job
	byID  map[string]*job.Job
	tiers map[tierq.Priority][]*job.Job

	executor   *worker.Executor
	extensions *ext.Registry
	deadLetter *dlq.Service
	logger     *slog.Logger
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		arena: make(map[string]*job.Job),
		byID:  make(map[string]*job.Job),
		tiers: make(map[tierq.Priority][]*job.Job),
	}

	cfg := applyOptions(opts)
	m.logger = cfg.logger
	m.extensions = ext.NewRegistry(cfg.logger)
	for _, e := range cfg.extensions {
		m.extensions.Register(e)
	}
	m.executor = worker.NewExecutor(m.extensions, cfg.logger, cfg.executorOpts...)

	store := cfg.dlqStore
	if store == nil {
		store = dlq.NewMemoryStore()
	}
	m.deadLetter = dlq.NewService(store, func(ctx context.Context, name string, priority tierq.Priority, fn job.WorkFunc) (id.JobID, error) {
		j, err := m.CreateJob(ctx, name, priority, fn)
		if err != nil {
			return id.JobID{}, err
		}
		return j.ID(), nil
	})

	return m
}

// DLQ returns the dead letter queue service for inspection and replay.
func (m *Manager) DLQ() *dlq.Service { return m.deadLetter }

// Extensions returns the manager's extension registry.
func (m *Manager) Extensions() *ext.Registry { return m.extensions }

// CreateJob allocates a job in Created state, indexes it under its
// priority and id, and emits a creation event. The returned handle is
// read-only apart from Trigger; all state mutation goes through the
// manager.
func (m *Manager) CreateJob(ctx context.Context, name string, priority tierq.Priority, fn job.WorkFunc) (*job.Job, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("create job %q: priority %q: %w", name, priority, tierq.ErrInvalidPriority)
	}
	if fn == nil {
		return nil, fmt.Errorf("create job %q: nil work callback: %w", name, tierq.ErrInvariant)
	}

	j := job.New(name, priority, fn)

	m.mu.Lock()
	m.arena[j.ID().String()] = j
	m.index(j)
	m.mu.Unlock()

	m.extensions.EmitJobCreated(ctx, j.Snapshot())
	m.logger.Debug("job created",
		slog.String("job_id", j.ID().String()),
		slog.String("job_name", name),
		slog.String("priority", string(priority)),
	)
	return j, nil
}

// Cancel transitions a job to Cancelled, removes it from both index
// views immediately, and triggers its cancellation token. The token is
// best-effort cooperative signaling: it cannot interrupt synchronous
// work already in progress.
//
// An unknown id is a fault. Cancelling an already-Cancelled job is a
// no-op. Cancelling a job the manager still holds in Completed or
// Failed state is a fault, since those states accept no Cancel action.
func (m *Manager) Cancel(ctx context.Context, jobID id.JobID) error {
	key := jobID.String()

	m.mu.Lock()
	j, ok := m.arena[key]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("cancel %s: %w", jobID, tierq.ErrJobNotFound)
	}

	if j.State() == job.StateCancelled {
		// Tombstone from an earlier Cancel. It must already be out of
		// both views; anything else means an index update was lost.
		if m.indexed(key) {
			m.mu.Unlock()
			return fmt.Errorf("cancel %s: cancelled job still indexed: %w", jobID, tierq.ErrInvariant)
		}
		m.mu.Unlock()
		return nil
	}

	if _, err := j.Apply(job.ActionCancel); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("cancel %s: %w", jobID, err)
	}
	m.unindex(j)
	m.mu.Unlock()

	j.Trigger()

	snap := j.Snapshot()
	m.extensions.EmitJobCancelled(ctx, snap)
	m.logger.Info("job cancelled",
		slog.String("job_id", key),
		slog.String("job_name", j.Name()),
	)
	return nil
}

// Job returns a snapshot of a live, non-terminal job.
func (m *Manager) Job(jobID id.JobID) (job.Snapshot, error) {
	m.mu.Lock()
	j, ok := m.byID[jobID.String()]
	m.mu.Unlock()
	if !ok {
		return job.Snapshot{}, fmt.Errorf("job %s: %w", jobID, tierq.ErrJobNotFound)
	}
	return j.Snapshot(), nil
}

// Jobs returns snapshots of all live, non-terminal jobs in no
// particular order.
func (m *Manager) Jobs() []job.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]job.Snapshot, 0, len(m.byID))
	for _, j := range m.byID {
		out = append(out, j.Snapshot())
	}
	return out
}

// JobsByPriority returns snapshots of the live jobs in one tier, in
// creation order.
func (m *Manager) JobsByPriority(priority tierq.Priority) ([]job.Snapshot, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("jobs by priority: %q: %w", priority, tierq.ErrInvalidPriority)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tier := m.tiers[priority]
	out := make([]job.Snapshot, 0, len(tier))
	for _, j := range tier {
		out = append(out, j.Snapshot())
	}
	return out, nil
}

// Len returns the number of live, non-terminal jobs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// ──────────────────────────────────────────────────
// Index maintenance
// ──────────────────────────────────────────────────
//
// The flat and priority views must agree at all times: a job is in both
// or in neither. All view mutation funnels through index and unindex so
// the two updates can never be scattered. Callers hold m.mu.

func (m *Manager) index(j *job.Job) {
	p := j.Priority()
	m.byID[j.ID().String()] = j
	m.tiers[p] = append(m.tiers[p], j)
}

func (m *Manager) unindex(j *job.Job) {
	key := j.ID().String()
	if _, ok := m.byID[key]; !ok {
		// Already removed; removing an absent job is a no-op.
		return
	}
	delete(m.byID, key)

	p := j.Priority()
	m.tiers[p] = slices.DeleteFunc(m.tiers[p], func(other *job.Job) bool {
		return other == j
	})
}

func (m *Manager) indexed(key string) bool {
	_, ok := m.byID[key]
	return ok
}

// destroy removes a job from both views and the arena.
func (m *Manager) destroy(j *job.Job) {
	m.unindex(j)
	delete(m.arena, j.ID().String())
}

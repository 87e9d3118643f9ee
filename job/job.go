// Package job defines the unit of work processed by the engine: the Job
// entity, its cooperative cancellation token, and the table-driven state
// machine that authorises every lifecycle mutation.
package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/id"
)

// WorkFunc is the callback a job executes. The context carries the
// job's cancellation signal: it is done once the job has been
// cancelled, and a cooperative callback should check it at its own
// suspension points.
type WorkFunc func(ctx context.Context) error

// Job represents one schedulable unit of work. Identity, name, creation
// time, and priority are immutable; state changes only through Apply,
// which routes every mutation through the transition table.
//
// A Job is safe for concurrent use: the manager's scheduling loop and a
// concurrent Cancel call may both apply transitions, and the absorbing
// Cancelled state resolves the race.
type Job struct {
	id        id.JobID
	name      string
	createdAt time.Time
	priority  tierq.Priority
	fn        WorkFunc

	mu    sync.RWMutex
	state State

	// Cancellation token: a one-way, idempotent trigger (cancel) plus a
	// signal (ctx) readable by the callback and the retry executor.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Job in Created state with a fresh ID and an untriggered
// cancellation token.
func New(name string, priority tierq.Priority, fn WorkFunc) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		id:        id.NewJobID(),
		name:      name,
		createdAt: time.Now().UTC(),
		priority:  priority,
		fn:        fn,
		state:     StateCreated,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() id.JobID { return j.id }

// Name returns the job's human-readable label.
func (j *Job) Name() string { return j.name }

// CreatedAt returns the job's construction timestamp.
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// Priority returns the job's dispatch tier.
func (j *Job) Priority() tierq.Priority { return j.priority }

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Apply validates the action against the transition table and, if
// valid, mutates the job's state. It returns the resulting state.
// The read-modify-write is atomic with respect to concurrent Apply
// calls, so a completion racing a cancellation settles in exactly one
// terminal state.
func (j *Job) Apply(a Action) (State, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	next, err := Transition(j.state, a)
	if err != nil {
		return j.state, err
	}
	j.state = next
	return next, nil
}

// Trigger fires the cancellation token. Triggering an already-triggered
// token is a no-op. This is best-effort cooperative signaling only: it
// cannot interrupt synchronous work already in progress; only a
// subsequent check of the signal can observe the cancellation.
func (j *Job) Trigger() { j.cancel() }

// Signal returns the cancellation signal. It is done once Trigger has
// been called.
func (j *Job) Signal() context.Context { return j.ctx }

// Invoke runs the work callback under the given context.
func (j *Job) Invoke(ctx context.Context) error { return j.fn(ctx) }

// Snapshot is a point-in-time diagnostic view of a job, used for
// lifecycle events and logging.
type Snapshot struct {
	ID       id.JobID       `json:"id"`
	Name     string         `json:"name"`
	Priority tierq.Priority `json:"priority"`
	State    State          `json:"state"`
}

// Snapshot returns the job's current diagnostic view.
func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		ID:       j.id,
		Name:     j.name,
		Priority: j.priority,
		State:    j.State(),
	}
}

// LogValue implements slog.LogValuer so jobs log as structured groups.
func (j *Job) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("job_id", j.id.String()),
		slog.String("job_name", j.name),
		slog.String("priority", string(j.priority)),
		slog.String("state", string(j.State())),
	)
}

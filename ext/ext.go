package ext

import (
	"context"
	"time"

	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobCreated is called after a job is accepted into the manager.
type JobCreated interface {
	OnJobCreated(ctx context.Context, snap job.Snapshot) error
}

// JobStarted is called when the scheduling loop begins executing a job.
type JobStarted interface {
	OnJobStarted(ctx context.Context, snap job.Snapshot) error
}

// JobCompleted is called after a job finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, snap job.Snapshot, elapsed time.Duration) error
}

// JobFailed is called when a job fails terminally (no more retries).
type JobFailed interface {
	OnJobFailed(ctx context.Context, snap job.Snapshot, err error) error
}

// JobRetrying is called when an attempt fails but the job will be retried.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, snap job.Snapshot, attempt int, delay time.Duration) error
}

// JobCancelled is called when a job is cancelled, either before dispatch
// or mid-flight.
type JobCancelled interface {
	OnJobCancelled(ctx context.Context, snap job.Snapshot) error
}

// JobRemoved is called just before a terminal job is removed from the
// manager's indices.
type JobRemoved interface {
	OnJobRemoved(ctx context.Context, snap job.Snapshot) error
}

// ──────────────────────────────────────────────────
// Scheduling hooks
// ──────────────────────────────────────────────────

// ScheduleFired is called when a cron schedule entry creates a job.
type ScheduleFired interface {
	OnScheduleFired(ctx context.Context, entryName string, jobID id.JobID) error
}

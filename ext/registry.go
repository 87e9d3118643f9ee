package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobCreatedEntry struct {
	name string
	hook JobCreated
}

type jobStartedEntry struct {
	name string
	hook JobStarted
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobFailedEntry struct {
	name string
	hook JobFailed
}

type jobRetryingEntry struct {
	name string
	hook JobRetrying
}

type jobCancelledEntry struct {
	name string
	hook JobCancelled
}

type jobRemovedEntry struct {
	name string
	hook JobRemoved
}

type scheduleFiredEntry struct {
	name string
	hook ScheduleFired
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	jobCreated    []jobCreatedEntry
	jobStarted    []jobStartedEntry
	jobCompleted  []jobCompletedEntry
	jobFailed     []jobFailedEntry
	jobRetrying   []jobRetryingEntry
	jobCancelled  []jobCancelledEntry
	jobRemoved    []jobRemovedEntry
	scheduleFired []scheduleFiredEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobCreated); ok {
		r.jobCreated = append(r.jobCreated, jobCreatedEntry{name, h})
	}
	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, jobStartedEntry{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, h})
	}
	if h, ok := e.(JobFailed); ok {
		r.jobFailed = append(r.jobFailed, jobFailedEntry{name, h})
	}
	if h, ok := e.(JobRetrying); ok {
		r.jobRetrying = append(r.jobRetrying, jobRetryingEntry{name, h})
	}
	if h, ok := e.(JobCancelled); ok {
		r.jobCancelled = append(r.jobCancelled, jobCancelledEntry{name, h})
	}
	if h, ok := e.(JobRemoved); ok {
		r.jobRemoved = append(r.jobRemoved, jobRemovedEntry{name, h})
	}
	if h, ok := e.(ScheduleFired); ok {
		r.scheduleFired = append(r.scheduleFired, scheduleFiredEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobCreated notifies all extensions that implement JobCreated.
func (r *Registry) EmitJobCreated(ctx context.Context, snap job.Snapshot) {
	for _, e := range r.jobCreated {
		if err := e.hook.OnJobCreated(ctx, snap); err != nil {
			r.logHookError("OnJobCreated", e.name, err)
		}
	}
}

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, snap job.Snapshot) {
	for _, e := range r.jobStarted {
		if err := e.hook.OnJobStarted(ctx, snap); err != nil {
			r.logHookError("OnJobStarted", e.name, err)
		}
	}
}

// EmitJobCompleted notifies all extensions that implement JobCompleted.
func (r *Registry) EmitJobCompleted(ctx context.Context, snap job.Snapshot, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		if err := e.hook.OnJobCompleted(ctx, snap, elapsed); err != nil {
			r.logHookError("OnJobCompleted", e.name, err)
		}
	}
}

// EmitJobFailed notifies all extensions that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, snap job.Snapshot, jobErr error) {
	for _, e := range r.jobFailed {
		if err := e.hook.OnJobFailed(ctx, snap, jobErr); err != nil {
			r.logHookError("OnJobFailed", e.name, err)
		}
	}
}

// EmitJobRetrying notifies all extensions that implement JobRetrying.
func (r *Registry) EmitJobRetrying(ctx context.Context, snap job.Snapshot, attempt int, delay time.Duration) {
	for _, e := range r.jobRetrying {
		if err := e.hook.OnJobRetrying(ctx, snap, attempt, delay); err != nil {
			r.logHookError("OnJobRetrying", e.name, err)
		}
	}
}

// EmitJobCancelled notifies all extensions that implement JobCancelled.
func (r *Registry) EmitJobCancelled(ctx context.Context, snap job.Snapshot) {
	for _, e := range r.jobCancelled {
		if err := e.hook.OnJobCancelled(ctx, snap); err != nil {
			r.logHookError("OnJobCancelled", e.name, err)
		}
	}
}

// EmitJobRemoved notifies all extensions that implement JobRemoved.
func (r *Registry) EmitJobRemoved(ctx context.Context, snap job.Snapshot) {
	for _, e := range r.jobRemoved {
		if err := e.hook.OnJobRemoved(ctx, snap); err != nil {
			r.logHookError("OnJobRemoved", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Scheduling event emitters
// ──────────────────────────────────────────────────

// EmitScheduleFired notifies all extensions that implement ScheduleFired.
func (r *Registry) EmitScheduleFired(ctx context.Context, entryName string, jobID id.JobID) {
	for _, e := range r.scheduleFired {
		if err := e.hook.OnScheduleFired(ctx, entryName, jobID); err != nil {
			r.logHookError("OnScheduleFired", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Extension errors never interrupt
// the engine.
func (r *Registry) logHookError(hook, extension string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}

package dlq

import (
	"context"
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// CreateFunc submits a new job to the engine. The manager's CreateJob
// satisfies this signature; the service depends on it rather than on
// the manager to avoid an import cycle.
type CreateFunc func(ctx context.Context, name string, priority tierq.Priority, fn job.WorkFunc) (id.JobID, error)

// Service provides high-level DLQ operations over a Store.
type Service struct {
	store  Store
	create CreateFunc
}

// NewService creates a DLQ service. create is used by Replay to
// resubmit archived jobs; it may be nil if replay is never used.
func NewService(store Store, create CreateFunc) *Service {
	return &Service{store: store, create: create}
}

// Push builds a DLQ entry from a terminally failed job and archives it.
// The error string and the work callback are captured so the entry can
// be inspected and replayed later.
func (s *Service) Push(ctx context.Context, j *job.Job, jobErr error, attempts int) error {
	entry := &Entry{
		ID:       id.NewDLQID(),
		JobID:    j.ID(),
		JobName:  j.Name(),
		Priority: j.Priority(),
		Error:    jobErr.Error(),
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
		fn:       j.Invoke,
	}
	return s.store.PushDLQ(ctx, entry)
}

// Replay resubmits a DLQ entry as a new job with a fresh ID and marks
// the entry as replayed. The new job keeps the original's name,
// priority, and callback.
func (s *Service) Replay(ctx context.Context, entryID id.DLQID) (id.JobID, error) {
	entry, err := s.store.GetDLQ(ctx, entryID)
	if err != nil {
		return id.JobID{}, err
	}

	jobID, err := s.create(ctx, entry.JobName, entry.Priority, entry.fn)
	if err != nil {
		return id.JobID{}, err
	}

	if err := s.store.ReplayDLQ(ctx, entryID); err != nil {
		// The job is already submitted; surface the bookkeeping error
		// alongside the new ID.
		return jobID, err
	}
	return jobID, nil
}

// List returns archived entries, oldest failure first.
func (s *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	return s.store.ListDLQ(ctx, opts)
}

// Get retrieves a single entry by ID.
func (s *Service) Get(ctx context.Context, entryID id.DLQID) (*Entry, error) {
	return s.store.GetDLQ(ctx, entryID)
}

// Purge removes entries that failed before the given time.
func (s *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	return s.store.PurgeDLQ(ctx, before)
}

// Count returns the number of archived entries.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountDLQ(ctx)
}

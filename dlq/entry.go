package dlq

import (
	"time"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// Entry represents a job that has failed terminally and been moved to
// the dead letter queue for inspection or replay.
type Entry struct {
	ID         id.DLQID       `json:"id"`
	JobID      id.JobID       `json:"job_id"`
	JobName    string         `json:"job_name"`
	Priority   tierq.Priority `json:"priority"`
	Error      string         `json:"error"`
	Attempts   int            `json:"attempts"`
	FailedAt   time.Time      `json:"failed_at"`
	ReplayedAt *time.Time     `json:"replayed_at,omitempty"`

	// fn is the job's work callback, captured so the entry can be
	// replayed without a payload or handler registry.
	fn job.WorkFunc
}

// Replayed reports whether the entry has been replayed.
func (e *Entry) Replayed() bool { return e.ReplayedAt != nil }

package cron

import (
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/miriambudayr/tierq"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// Entry is one recurring schedule: a cron expression plus the job it
// submits when due.
type Entry struct {
	ID       id.SchedID
	Name     string
	Schedule string
	Priority tierq.Priority
	Enabled  bool

	LastRunAt *time.Time
	NextRunAt time.Time

	fn       job.WorkFunc
	schedule cronlib.Schedule
}

// Snapshot is a read-only view of an entry for inspection.
type Snapshot struct {
	ID        id.SchedID     `json:"id"`
	Name      string         `json:"name"`
	Schedule  string         `json:"schedule"`
	Priority  tierq.Priority `json:"priority"`
	Enabled   bool           `json:"enabled"`
	LastRunAt *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt time.Time      `json:"next_run_at"`
}

func (e *Entry) snapshot() Snapshot {
	return Snapshot{
		ID:        e.ID,
		Name:      e.Name,
		Schedule:  e.Schedule,
		Priority:  e.Priority,
		Enabled:   e.Enabled,
		LastRunAt: e.LastRunAt,
		NextRunAt: e.NextRunAt,
	}
}

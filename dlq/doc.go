// Package dlq provides the dead letter queue for jobs that have
// exhausted their retry budget. It supports inspection, replay, and
// purging.
//
// When a job fails terminally, the manager calls [Service.Push] to
// archive it. The job's name, priority, final error message, and work
// callback are preserved, so an entry can later be replayed as a fresh
// job:
//
//	entries, _ := svc.List(ctx, dlq.ListOpts{Limit: 50})
//	jobID, err := svc.Replay(ctx, entries[0].ID)
//
// Replay submits the archived callback through the CreateFunc the
// service was constructed with and stamps the entry's ReplayedAt.
package dlq

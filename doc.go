// Package tierq provides an in-process execution engine for discrete
// units of work with priority ordering, automatic retry on transient
// failure, and cooperative cancellation. There is no external
// persistence and no distributed coordinator: all state lives in
// memory, owned by a single Manager.
//
// tierq is designed as a library, not a service. Create a manager,
// hand it work callbacks, and drain it:
//
//	m := manager.New(manager.WithLogger(logger))
//	j, _ := m.CreateJob(ctx, "send-email", tierq.PriorityHigh, sendEmail)
//	_ = m.RunJobs(ctx, 3)
//
// # Architecture
//
// The job lifecycle is a table-driven state machine (package job); a
// retry executor (package worker) runs each callback with exponential
// backoff and jitter (package backoff) under a cooperative cancellation
// token; the manager (package manager) owns the job set, partitioned by
// priority tier, and drains tiers high to low with a full barrier
// between tiers. Lifecycle events fan out to extensions (package ext).
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package tierq

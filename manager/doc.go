// Package manager owns the set of live jobs and drives the scheduling
// loop. It is the only component that mutates job state, always through
// the transition table, and the only owner of the job indices.
//
// Jobs live in a single arena keyed by job ID, with two index views
// over it: a flat id view and a priority-partitioned view. A job is
// present in both views if and only if it is non-terminal; every
// insertion and removal updates both views together under one lock.
// Cancelled jobs leave the views immediately but remain in the arena as
// tombstones until the next RunJobs pass sweeps them, which is what
// makes a second Cancel of the same job a clean no-op.
//
// RunJobs drains priority tiers in strict order: every high job settles
// before any medium job starts, and so on. Within a tier all eligible
// jobs run concurrently with no cap and no ordering guarantee.
package manager

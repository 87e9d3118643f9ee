// Package cron submits recurring jobs on cron schedules. Entries are
// held in memory by the Scheduler; each tick, every enabled entry whose
// next-run time has passed is fired by submitting a fresh job through
// the SubmitFunc the scheduler was built with.
//
//	s := cron.NewScheduler(submit, registry, logger)
//	s.Add("nightly-report", "0 3 * * *", tierq.PriorityLow, buildReport)
//	s.Start(ctx)
//	defer s.Stop(ctx)
//
// Expressions use the standard 5-field syntax plus descriptors like
// "@every 30s" and "@hourly".
package cron

// Package ext defines the extension system for tierq.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, writing audit logs, collecting diagnostics, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about. Events carry a [job.Snapshot], the
// job's point-in-time diagnostic view.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnJobCompleted(ctx context.Context, snap job.Snapshot, elapsed time.Duration) error {
//	    log.Printf("job %s completed in %s", snap.ID, elapsed)
//	    return nil
//	}
//
// # Job Lifecycle Hooks
//
//   - [JobCreated] — job was accepted into the manager
//   - [JobStarted] — the scheduling loop began executing the job
//   - [JobCompleted] — job finished successfully
//   - [JobFailed] — job failed with no retries remaining
//   - [JobRetrying] — an attempt failed but the job will be retried
//   - [JobCancelled] — job was cancelled (explicitly or mid-flight)
//   - [JobRemoved] — job reached a terminal state and is about to be
//     removed from the manager's indices
//   - [ScheduleFired] — a cron schedule entry created a job
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. Hook errors are logged
// and never interrupt the engine.
package ext

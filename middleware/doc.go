// Package middleware provides composable middleware for job execution.
//
// A [Middleware] is a function that wraps a job's work callback.
// Middleware are composed into a chain using [Chain] and applied around
// every execution attempt, so a retried job passes through the chain
// once per attempt. They are applied right-to-left: the first middleware
// in the slice is the outermost wrapper.
//
//	// logging → recover → callback
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs job name, priority, duration, and outcome
//   - [Recover] — catches panics and converts them to errors, so a
//     panicking callback is retried like any other failure
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-attempt duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware

// Package observability provides an OpenTelemetry-based metrics
// extension. MetricsExtension implements lifecycle hooks to record
// system-wide counters for job creation, completion, failure, retry,
// cancellation, and schedule fires.
//
// For per-attempt duration and tracing, see the middleware package:
// middleware.Metrics() and middleware.Tracing().
package observability

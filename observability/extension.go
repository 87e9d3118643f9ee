package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/miriambudayr/tierq/ext"
	"github.com/miriambudayr/tierq/id"
	"github.com/miriambudayr/tierq/job"
)

// meterName is the instrumentation scope name for tierq metrics.
const meterName = "github.com/miriambudayr/tierq"

// Compile-time interface checks.
var (
	_ ext.Extension     = (*MetricsExtension)(nil)
	_ ext.JobCreated    = (*MetricsExtension)(nil)
	_ ext.JobCompleted  = (*MetricsExtension)(nil)
	_ ext.JobFailed     = (*MetricsExtension)(nil)
	_ ext.JobRetrying   = (*MetricsExtension)(nil)
	_ ext.JobCancelled  = (*MetricsExtension)(nil)
	_ ext.ScheduleFired = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle counters. Register it
// with the manager to track creation rates, completion counts, failure
// rates, retries, cancellations, and schedule fires. Counters carry a
// priority attribute where the event has one.
type MetricsExtension struct {
	created   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	retried   metric.Int64Counter
	cancelled metric.Int64Counter
	schedules metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If none is configured, the counters are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific
// MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.created, _ = meter.Int64Counter("tierq.job.created",
		metric.WithDescription("Total jobs accepted into the manager"),
		metric.WithUnit("{job}"),
	)
	m.completed, _ = meter.Int64Counter("tierq.job.completed",
		metric.WithDescription("Total jobs that finished successfully"),
		metric.WithUnit("{job}"),
	)
	m.failed, _ = meter.Int64Counter("tierq.job.failed",
		metric.WithDescription("Total jobs that failed terminally"),
		metric.WithUnit("{job}"),
	)
	m.retried, _ = meter.Int64Counter("tierq.job.retried",
		metric.WithDescription("Total retry attempts scheduled"),
		metric.WithUnit("{attempt}"),
	)
	m.cancelled, _ = meter.Int64Counter("tierq.job.cancelled",
		metric.WithDescription("Total jobs cancelled"),
		metric.WithUnit("{job}"),
	)
	m.schedules, _ = meter.Int64Counter("tierq.schedule.fired",
		metric.WithDescription("Total cron schedule fires"),
		metric.WithUnit("{fire}"),
	)
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func priorityAttr(snap job.Snapshot) metric.AddOption {
	return metric.WithAttributes(attribute.String("priority", string(snap.Priority)))
}

// OnJobCreated implements ext.JobCreated.
func (m *MetricsExtension) OnJobCreated(ctx context.Context, snap job.Snapshot) error {
	m.created.Add(ctx, 1, priorityAttr(snap))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, snap job.Snapshot, _ time.Duration) error {
	m.completed.Add(ctx, 1, priorityAttr(snap))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, snap job.Snapshot, _ error) error {
	m.failed.Add(ctx, 1, priorityAttr(snap))
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(ctx context.Context, snap job.Snapshot, _ int, _ time.Duration) error {
	m.retried.Add(ctx, 1, priorityAttr(snap))
	return nil
}

// OnJobCancelled implements ext.JobCancelled.
func (m *MetricsExtension) OnJobCancelled(ctx context.Context, snap job.Snapshot) error {
	m.cancelled.Add(ctx, 1, priorityAttr(snap))
	return nil
}

// OnScheduleFired implements ext.ScheduleFired.
func (m *MetricsExtension) OnScheduleFired(ctx context.Context, entryName string, _ id.JobID) error {
	m.schedules.Add(ctx, 1, metric.WithAttributes(attribute.String("schedule", entryName)))
	return nil
}

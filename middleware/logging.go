package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/miriambudayr/tierq/job"
)

// Logging returns middleware that logs the start and outcome of every
// execution attempt.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		logger.Info("job attempt started",
			slog.String("job_name", j.Name()),
			slog.String("job_id", j.ID().String()),
			slog.String("priority", string(j.Priority())),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job attempt failed",
				slog.String("job_name", j.Name()),
				slog.String("job_id", j.ID().String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job attempt completed",
				slog.String("job_name", j.Name()),
				slog.String("job_id", j.ID().String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}

package worker

import (
	"context"
	"time"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

type ContextJob func(context.Context) error

// PeriodicalContextJob runs job every interval until ctx is done.
// Job errors are logged and do not stop the schedule.
func PeriodicalContextJob(job ContextJob, every time.Duration, logger log.Logger) ContextJob {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := job(ctx); err != nil {
					logger.WithError(err).Error(ctx, "periodical job completed with error")
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
	"github.com/klwxsrx/edu-resource-client/pkg/worker"
)

var errJobStopped = errors.New("job stopped")

// Run blocks until the first job returns, then cancels the rest and waits for them.
// A job returning nil or the cancellation error is a clean stop.
func Run(ctx context.Context, logger log.Logger, jobs ...worker.ContextJob) error {
	groupCtx, group := worker.NewGroup(ctx)
	for i, job := range jobs {
		jobLogger := logger.WithField("job", i)
		group.Do(func() error {
			err := job(groupCtx)
			if err == nil || errors.Is(err, groupCtx.Err()) {
				return errJobStopped
			}

			jobLogger.WithError(err).Error(groupCtx, "job failed")
			return err
		})
	}

	err := group.Wait()
	if errors.Is(err, errJobStopped) {
		return nil
	}
	return err
}

// RunUntilTerminated runs jobs until one of them stops or the process gets SIGINT or SIGTERM.
func RunUntilTerminated(ctx context.Context, logger log.Logger, jobs ...worker.ContextJob) error {
	return Run(ctx, logger, append([]worker.ContextJob{TermSignalAwaiter}, jobs...)...)
}

// KeepAlive calls job right away and then every interval until termination.
// A failed call is logged, the next tick tries again.
func KeepAlive(ctx context.Context, logger log.Logger, interval time.Duration, job worker.ContextJob) error {
	logger = logger.WithField("interval", interval.String())
	logger.Info(ctx, "keep-alive started")
	defer logger.Info(ctx, "keep-alive stopped")

	if err := job(ctx); err != nil {
		logger.WithError(err).Error(ctx, "keep-alive call failed")
	}

	return RunUntilTerminated(ctx, logger, worker.PeriodicalContextJob(job, interval, logger))
}

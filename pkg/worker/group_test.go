package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
	"github.com/klwxsrx/edu-resource-client/pkg/worker"
)

func TestGroup_Wait_ReturnsFirstErrorAndCancelsContext(t *testing.T) {
	errFailed := errors.New("failed")
	ctx, group := worker.NewGroup(context.Background())

	group.Do(func() error { return errFailed })
	group.Do(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := group.Wait()
	assert.ErrorIs(t, err, errFailed)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestGroup_Wait_ReturnsNil_WhenAllJobsSucceed(t *testing.T) {
	var completed atomic.Int32
	_, group := worker.NewGroup(context.Background())
	for range 5 {
		group.Do(func() error {
			completed.Add(1)
			return nil
		})
	}

	assert.NoError(t, group.Wait())
	assert.Equal(t, int32(5), completed.Load())
}

func TestPeriodicalContextJob_RunsUntilContextIsDone(t *testing.T) {
	var calls atomic.Int32
	job := worker.PeriodicalContextJob(func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	}, time.Millisecond, log.NewStub())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

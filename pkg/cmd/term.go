package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// TermSignalAwaiter completes on SIGINT or SIGTERM, use it as a job for Run.
func TermSignalAwaiter(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-TermSignals():
	}

	return nil
}

func TermSignals() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)

	return ch
}

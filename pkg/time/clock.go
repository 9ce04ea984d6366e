package time

import (
	"context"
	"time"
)

const nowContextKey contextKey = iota

type (
	// Clock is read every time a token expiry is checked.
	Clock interface {
		Now(context.Context) time.Time
	}

	wallClock struct{}

	skewedClock struct {
		clock Clock
		skew  time.Duration
	}

	contextKey int
)

func NewClock() Clock {
	return wallClock{}
}

// WithSkew shifts every reading of clock by skew.
// A positive skew suits a host whose clock runs behind the token issuer.
func WithSkew(clock Clock, skew time.Duration) Clock {
	if skew == 0 {
		return clock
	}
	return skewedClock{clock: clock, skew: skew}
}

// WithNow pins the instant the wall clock reports for ctx.
func WithNow(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowContextKey, t)
}

func (wallClock) Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowContextKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func (c skewedClock) Now(ctx context.Context) time.Time {
	return c.clock.Now(ctx).Add(c.skew)
}

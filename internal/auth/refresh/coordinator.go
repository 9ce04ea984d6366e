//go:generate ${TOOLS_BIN}/mockgen -source ${GOFILE} -destination mock/${GOFILE} -package mock -mock_names "Refresher=Refresher,SessionStore=SessionStore"
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/internal/auth/token"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
	pkgtime "github.com/klwxsrx/edu-resource-client/pkg/time"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultMaxRetries    = 1
	DefaultRetryInterval = 500 * time.Millisecond
)

var (
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrTokenRejected marks refresh failures that retrying cannot fix.
	ErrTokenRejected = errors.New("token rejected")
)

type (
	Refresher interface {
		Refresh(ctx context.Context) (string, error)
	}

	SessionStore interface {
		Token() string
		SetToken(ctx context.Context, previous, next string) error
		ExpireToken(ctx context.Context, token string, reason session.Reason) error
	}

	State struct {
		InProgress bool
		Waiters    int
	}

	Option func(*Coordinator)

	result struct {
		token string
		err   error
	}
)

func WithExpiryBuffer(buffer time.Duration) Option {
	return func(c *Coordinator) {
		c.buffer = buffer
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithRetries(maxRetries uint64, interval time.Duration) Option {
	return func(c *Coordinator) {
		c.maxRetries = maxRetries
		c.retryInterval = interval
	}
}

func WithClock(clock pkgtime.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// Coordinator keeps at most one token refresh in flight.
// Callers arriving while it runs wait for its outcome.
type Coordinator struct {
	refresher     Refresher
	sessions      SessionStore
	clock         pkgtime.Clock
	logger        log.Logger
	buffer        time.Duration
	timeout       time.Duration
	maxRetries    uint64
	retryInterval time.Duration

	mutex    sync.Mutex
	inFlight bool
	waiters  []chan result
}

func NewCoordinator(refresher Refresher, sessions SessionStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		refresher:     refresher,
		sessions:      sessions,
		clock:         pkgtime.NewClock(),
		logger:        log.NewStub(),
		buffer:        token.DefaultExpiryBuffer,
		timeout:       DefaultTimeout,
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EnsureFreshToken returns the current token, refreshing it first when it expires soon.
// An empty token is returned as is, there is nothing to refresh.
func (c *Coordinator) EnsureFreshToken(ctx context.Context) (string, error) {
	c.mutex.Lock()
	current := c.sessions.Token()
	if current == "" || !token.IsExpiringSoon(current, c.clock.Now(ctx), c.buffer) {
		c.mutex.Unlock()
		return current, nil
	}

	waiter := make(chan result, 1)
	c.waiters = append(c.waiters, waiter)
	if !c.inFlight {
		c.inFlight = true
		go c.refresh(context.WithoutCancel(ctx), current)
	}
	c.mutex.Unlock()

	select {
	case res := <-waiter:
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return State{
		InProgress: c.inFlight,
		Waiters:    len(c.waiters),
	}
}

// refresh replaces previous. A session that changed meanwhile keeps its own token.
func (c *Coordinator) refresh(ctx context.Context, previous string) {
	var (
		newToken string
		err      error
	)
	defer func() {
		if msg := recover(); msg != nil {
			err = fmt.Errorf("refresh panicked: %v", msg)
		}
		c.settle(ctx, previous, newToken, err)
	}()

	c.logger.Info(ctx, "refreshing expiring token")
	newToken, err = c.refreshWithRetry(ctx)
	if err != nil {
		return
	}

	err = c.sessions.SetToken(ctx, previous, newToken)
	if err != nil {
		err = fmt.Errorf("install token: %w", err)
	}
}

func (c *Coordinator) refreshWithRetry(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryInterval), c.maxRetries),
		ctx,
	)

	var newToken string
	err := backoff.RetryNotify(
		func() error {
			var err error
			newToken, err = c.refresher.Refresh(ctx)
			if errors.Is(err, ErrTokenRejected) {
				return backoff.Permanent(err)
			}
			if err == nil && newToken == "" {
				return backoff.Permanent(fmt.Errorf("%w: empty token", ErrTokenRejected))
			}
			return err
		},
		policy,
		func(err error, next time.Duration) {
			c.logger.WithError(err).WithField("retryIn", next.String()).Warn(ctx, "token refresh attempt failed")
		},
	)
	if err != nil {
		return "", err
	}

	return newToken, nil
}

func (c *Coordinator) settle(ctx context.Context, previous, newToken string, err error) {
	if err != nil {
		c.expire(ctx, previous, err)

		newToken = ""
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	} else {
		c.logger.Info(ctx, "token refreshed")
	}

	c.mutex.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.mutex.Unlock()

	for _, waiter := range waiters {
		waiter <- result{token: newToken, err: err}
	}
}

func (c *Coordinator) expire(ctx context.Context, previous string, refreshErr error) {
	if errors.Is(refreshErr, session.ErrSessionChanged) {
		c.logger.Info(ctx, "session changed during token refresh, refreshed token dropped")
		return
	}

	c.logger.WithError(refreshErr).Warn(ctx, "token refresh failed, terminating session")
	err := c.sessions.ExpireToken(ctx, previous, session.ReasonRefreshFailed)
	switch {
	case errors.Is(err, session.ErrSessionChanged):
		c.logger.Info(ctx, "session changed during token refresh, keeping it")
	case err != nil:
		c.logger.WithError(err).Error(ctx, "failed to expire session")
	}
}

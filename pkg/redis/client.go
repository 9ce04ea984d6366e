package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

const defaultConnectionTimeout = 10 * time.Second

type Config struct {
	Address           string
	Password          string
	DB                int
	ConnectionTimeout time.Duration
}

type Client struct {
	*redis.Client
	logger log.Logger
}

// NewClient connects to redis and waits until it answers ping.
func NewClient(ctx context.Context, config *Config, logger log.Logger) (*Client, error) {
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = defaultConnectionTimeout
	}

	impl := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.RandomizationFactor = 0
	eb.Multiplier = 2
	eb.MaxInterval = config.ConnectionTimeout / 4
	eb.MaxElapsedTime = config.ConnectionTimeout

	err := backoff.Retry(func() error {
		return impl.Ping(ctx).Err()
	}, backoff.WithContext(eb, ctx))
	if err != nil {
		_ = impl.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{
		Client: impl,
		logger: logger,
	}, nil
}

func (c *Client) Close(ctx context.Context) {
	err := c.Client.Close()
	if err != nil {
		c.logger.WithError(err).Error(ctx, "failed to close redis client")
	}
}

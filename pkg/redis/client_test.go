package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
	"github.com/klwxsrx/edu-resource-client/pkg/redis"
)

func TestNewClient_ConnectsToServer(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.NewClient(ctx, &redis.Config{Address: server.Addr()}, log.NewStub())
	require.NoError(t, err)
	defer client.Close(ctx)

	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	value, err := server.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestNewClient_FailsWhenServerUnavailable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := redis.NewClient(
		context.Background(),
		&redis.Config{Address: addr, ConnectionTimeout: 100 * time.Millisecond},
		log.NewStub(),
	)
	assert.Error(t, err)
}

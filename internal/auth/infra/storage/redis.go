package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
)

const DefaultRedisKeyPrefix = "edu:session:"

type redisStorage struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable, keyPrefix string) session.Storage {
	return &redisStorage{
		client: client,
		prefix: keyPrefix,
	}
}

func (s *redisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}

	return value, true, nil
}

func (s *redisStorage) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, s.key(key), value, 0).Err()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

func (s *redisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, s.key(key))
	}

	err := s.client.Del(ctx, prefixed...).Err()
	if err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}

	return nil
}

func (s *redisStorage) key(key string) string {
	return s.prefix + key
}

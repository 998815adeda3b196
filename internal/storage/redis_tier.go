package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "gymclient-session||"

// RedisTier is a durable tier shared by every client pointing at the same
// redis; namespace separates profiles (e.g. one per OS user).
type RedisTier struct {
	redisClient *redis.Client
	namespace   string
}

func NewRedisTier(redisClient *redis.Client, namespace string) *RedisTier {
	return &RedisTier{
		redisClient: redisClient,
		namespace:   namespace,
	}
}

func (t *RedisTier) Name() string  { return "durable-redis" }
func (t *RedisTier) Durable() bool { return true }

func (t *RedisTier) redisKey(key string) string {
	return sessionKeyPrefix + t.namespace + "||" + key
}

func (t *RedisTier) Get(ctx context.Context, key string) (string, error) {
	cmd := t.redisClient.Get(ctx, t.redisKey(key))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("redis tier get %s: %w", key, err)
	}
	return cmd.Val(), nil
}

func (t *RedisTier) Set(ctx context.Context, key, value string) error {
	cmd := t.redisClient.Set(ctx, t.redisKey(key), value, 0)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis tier set %s: %w", key, err)
	}
	return nil
}

func (t *RedisTier) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, t.redisKey(key))
	}
	cmd := t.redisClient.Del(ctx, redisKeys...)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis tier delete: %w", err)
	}
	return nil
}

package apiclient

import (
	"context"
	"fmt"
	"math"

	"github.com/2beens/gymclient/internal/apperrors"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=apiclient_test

const rateLimitKey = "gymclient-api-requests"

// Limiter throttles outgoing requests. Allow returns an error when the
// request must not be sent.
type Limiter interface {
	Allow(ctx context.Context) error
}

// RedisLimiter shares a per-minute budget across every client process that
// uses the same redis, e.g. scripted CLI runs.
type RedisLimiter struct {
	limiter   *redis_rate.Limiter
	perMinute int
	key       string
}

func NewRedisLimiter(rdb *redis.Client, perMinute int, account string) *RedisLimiter {
	key := rateLimitKey
	if account != "" {
		key += "||" + account
	}
	return &RedisLimiter{
		limiter:   redis_rate.NewLimiter(rdb),
		perMinute: perMinute,
		key:       key,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context) error {
	res, err := l.limiter.Allow(ctx, l.key, redis_rate.PerMinute(l.perMinute))
	if err != nil {
		// redis down must not take the client down with it
		log.Warnf("rate limiter unavailable, allowing request: %s", err)
		return nil
	}
	if res.Allowed > 0 {
		return nil
	}

	retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
	return apperrors.New(
		apperrors.ErrRemote,
		fmt.Sprintf("Demasiadas solicitudes, inténtalo de nuevo en %d s", retryAfter),
	)
}

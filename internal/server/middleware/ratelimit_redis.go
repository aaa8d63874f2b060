package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter ограничивает число запросов в фиксированном окне, счетчики
// хранятся в Redis и общие для всех экземпляров сервера
type RedisLimiter struct {
	client *redis.Client
	prefix string
	rate   int64
	window time.Duration
}

// NewRedisLimiter создает limiter поверх готового клиента Redis
func NewRedisLimiter(client *redis.Client, rate int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "ratelimit:",
		rate:   int64(rate),
		window: window,
	}
}

// Allow implements Limiter. Окно начинается с первого запроса. INCR и
// EXPIRE NX идут одной транзакцией, поэтому счетчик не остается без TTL.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", redisKey, err)
	}

	return incr.Val() <= l.rate, nil
}

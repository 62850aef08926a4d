package ratelimit

import (
	"context"
	"fmt"
	"time"

	"llmadmin/internal/utils/log"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps window counters in a shared redis instance so that any
// number of gateway instances see the same state. Each attempt pipelines an
// INCR with an EXPIRE NX; the TTL is therefore anchored at the first
// consumption of the window and the counter vanishes when the window ends.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(addr, password string, db int) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisLimiter{client: client}, nil
}

func (rl *RedisLimiter) TryConsume(ctx context.Context, keyID int, quota int) Decision {
	scopedKey := fmt.Sprintf("ratelimit:key:%d", keyID)

	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, scopedKey)
	pipe.ExpireNX(ctx, scopedKey, Window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Availability over strict enforcement: an unreachable counter
		// store admits the request rather than blocking all traffic.
		log.Warnf("rate limiter failing open for key %d: %v", keyID, err)
		return Decision{Allowed: true, FailedOpen: true}
	}

	return decide(incr.Val(), quota)
}

func (rl *RedisLimiter) Close() error {
	return rl.client.Close()
}

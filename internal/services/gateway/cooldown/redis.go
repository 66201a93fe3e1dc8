package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "alert:cooldown:"

// Redis backs the cooldown mapping with an external expiring key-value
// store so multiple gateway instances share one window per recipient.
// Keys carry a TTL of the window; expiry doubles as eviction.
type Redis struct {
	client *redis.Client
	window time.Duration
}

// NewRedis connects to the shared store and verifies it is reachable.
func NewRedis(addr, password string, window time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("Redis cooldown store connected")

	return &Redis{client: client, window: window}, nil
}

func (r *Redis) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	ms, err := r.client.Get(ctx, redisKeyPrefix+key).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}

func (r *Redis) MarkSent(ctx context.Context, key string, t time.Time) error {
	return r.client.Set(ctx, redisKeyPrefix+key, t.UnixMilli(), r.window).Err()
}

// Close releases the underlying connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper shares the seen-set across bot instances.
type RedisDeduper struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisDeduper {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisDeduper{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	fresh, err := d.client.SetNX(ctx, fmt.Sprintf("dedupe:%s", key), 1, d.ttl).Result()
	if err != nil {
		d.log.Error("failed to check dedupe key", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return !fresh, nil
}

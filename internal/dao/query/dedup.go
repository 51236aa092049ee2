package query

import (
	"alertflow/internal/dao"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisDedup struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisDedup 基于 SETNX 的告警去重
func NewRedisDedup(rdb redis.Cmdable) dao.AlertDedup {
	return &redisDedup{rdb: rdb, prefix: "alertflow:alert:dedup:"}
}

func (r *redisDedup) Seen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (r *redisDedup) Forget(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.prefix+key).Err()
}

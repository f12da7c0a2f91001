package cache

import (
	"context"
	"errors"
	"time"

	"tz-api/internal/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Redis 共享缓存层；读写失败只记日志，不影响查询
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewRedis rc 为 nil 时返回 nil 接口，NewChain 会跳过
func NewRedis(rc *redis.Client, ttl time.Duration) Tier {
	if rc == nil {
		return nil
	}
	return &Redis{rc: rc, ttl: ttl}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	s, err := r.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Debug("redis_get_error", "key", key, "err", err)
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(s, &e); err != nil || e.Name == "" {
		return Entry{}, false
	}
	return e, true
}

func (r *Redis) Set(ctx context.Context, key string, e Entry) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := r.rc.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logger.L().Debug("redis_set_error", "key", key, "err", err)
	}
}

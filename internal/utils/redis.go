// 包 utils：外部依赖（Redis、PostgreSQL、TLS 证书）的按配置打开与降级
package utils

import (
	"context"
	"time"

	"tz-api/internal/config"
	"tz-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：使用地址与密码打开 Redis 客户端
// 背景：保留直接传入参数的能力，用于测试与手工注入场景
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// OpenRedisFromConfig：未配置主机时返回 nil；Ping 失败仅记录日志，客户端仍返回（后续请求会重连）
func OpenRedisFromConfig(ctx context.Context, c config.Config) *redis.Client {
	addr := c.RedisAddr()
	if addr == "" {
		logger.L().Info("redis_disabled")
		return nil
	}
	db := c.Redis.DB
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_config", "addr", addr, "db", db)
	rc := OpenRedis(addr, c.Redis.Pass, db)
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		logger.L().Error("redis_ping_error", "err", err)
	} else {
		logger.L().Info("redis_ping_ok")
	}
	return rc
}

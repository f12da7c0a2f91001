package utils

import (
	"context"
	"time"

	"tz-api/internal/config"
	"tz-api/internal/logger"
	"tz-api/internal/migrate"
	"tz-api/internal/store"
)

// OpenStatsStore: 按配置打开统计库并确保表结构
// 约束：未配置 PG_HOST 或 stats 未启用时返回 nil（合法的空 Store）；连接失败同样降级为 nil，不阻断服务。
func OpenStatsStore(ctx context.Context, c config.Config) *store.Store {
	dsn := c.PostgresDSN()
	if !c.Stats.Enabled || dsn == "" {
		logger.L().Info("stats_disabled")
		return nil
	}
	st, err := store.Open(dsn, c.PG.MaxOpenConns, c.PG.MaxIdleConns)
	if err != nil {
		logger.L().Error("db_open_error", "err", err)
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := st.DB().PingContext(pctx); err != nil {
		logger.L().Error("db_ping_error", "err", err)
		_ = st.Close()
		return nil
	}
	logger.L().Info("db_ping_ok")
	if err := migrate.EnsureSchema(pctx, st.DB()); err != nil {
		logger.L().Error("schema_error", "err", err)
		_ = st.Close()
		return nil
	}
	return st
}

package migrate

import (
	"context"
	"database/sql"

	"tz-api/internal/logger"
)

// 背景：首次运行自动创建统计表，保障后续计数写入
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _tz_stats_total (
            id INT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0,
            fallback_queries BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO _tz_stats_total(id, total_queries, fallback_queries, total_visitors)
         VALUES(1, 0, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS _tz_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _tz_stats_zone (
            zone TEXT PRIMARY KEY,
            hits BIGINT NOT NULL DEFAULT 0,
            last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS _tz_datasets (
            version TEXT NOT NULL,
            polygons INT NOT NULL,
            index_kind TEXT NOT NULL,
            loaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_tz_datasets_loaded ON _tz_datasets(loaded_at DESC)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

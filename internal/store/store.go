// 包 store: 提供与 PostgreSQL 的数据访问层，负责查询统计的读写
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tz-api/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供统计接口
// 约束：nil *Store 合法，所有写入为空操作、读取返回零值，统计为可选能力。
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// IncrStats: 成功查询后递增总计、当日与时区计数；fallback 额外计入兜底次数
func (s *Store) IncrStats(ctx context.Context, zone string, fallback bool) error {
	if s == nil {
		return nil
	}
	fb := 0
	if fallback {
		fb = 1
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE _tz_stats_total SET total_queries=total_queries+1, fallback_queries=fallback_queries+$1 WHERE id=1", fb); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO _tz_stats_daily(day, queries) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET queries=_tz_stats_daily.queries+1"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO _tz_stats_zone(zone, hits, last_seen) VALUES($1, 1, now()) ON CONFLICT (zone) DO UPDATE SET hits=_tz_stats_zone.hits+1, last_seen=now()", zone); err != nil {
		return err
	}
	logger.L().Debug("stats_incr", "zone", zone, "fallback", fallback)
	return nil
}

// IncrVisitor: 当日首次出现的访客计数；去重由调用方负责
func (s *Store) IncrVisitor(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE _tz_stats_total SET total_visitors=total_visitors+1 WHERE id=1"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO _tz_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_tz_stats_daily.visitors+1")
	return err
}

// Totals: 统计返回结构
type Totals struct {
	Total         int64 `json:"total"`
	Fallback      int64 `json:"fallback"`
	Visitors      int64 `json:"visitors"`
	Today         int64 `json:"today"`
	TodayVisitors int64 `json:"today_visitors"`
}

// GetTotals: 读取累计、兜底与当日查询次数；当日无记录时为 0
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	if s == nil {
		return &t, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT total_queries, fallback_queries, total_visitors FROM _tz_stats_total WHERE id=1")
	if err := row.Scan(&t.Total, &t.Fallback, &t.Visitors); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	row2 := s.db.QueryRowContext(ctx, "SELECT queries, visitors FROM _tz_stats_daily WHERE day=current_date")
	if err := row2.Scan(&t.Today, &t.TodayVisitors); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}

type ZoneHits struct {
	Zone     string    `json:"zone"`
	Hits     int64     `json:"hits"`
	LastSeen time.Time `json:"last_seen"`
}

// TopZones: 命中次数最多的 n 个时区
func (s *Store) TopZones(ctx context.Context, n int) ([]ZoneHits, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT zone, hits, last_seen FROM _tz_stats_zone ORDER BY hits DESC, zone LIMIT $1", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ZoneHits
	for rows.Next() {
		var z ZoneHits
		if err := rows.Scan(&z.Zone, &z.Hits, &z.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// RecordDataset: 记录一次数据集加载，便于追溯线上使用过的数据版本
func (s *Store) RecordDataset(ctx context.Context, version string, polygons int, indexKind string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO _tz_datasets(version, polygons, index_kind) VALUES($1, $2, $3)", version, polygons, indexKind)
	return err
}

package api

import (
	"context"
	"time"

	"tz-api/internal/cache"
	"tz-api/internal/coordsys"
	"tz-api/internal/geoip"
	"tz-api/internal/logger"
	"tz-api/internal/metrics"
	"tz-api/internal/store"
	"tz-api/pkg/tzfinder"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
)

// 文档注释：查询服务
// 背景：HTTP 层与查询器之间的一层，负责坐标系转换、热点缓存、统计与访客计数。
// 约束：除 Finder 外的依赖均可为 nil，缺失时对应能力降级为空操作。
type Service struct {
	Finder *tzfinder.Finder
	Cache  *cache.Chain
	Stats  *store.Store
	GeoIP  *geoip.Reader
	Redis  *redis.Client
}

// Lookup 单点查询结果（对外）
type Lookup struct {
	Lng      float64 `json:"lng"`
	Lat      float64 `json:"lat"`
	Timezone string  `json:"timezone"`
	Fallback bool    `json:"fallback"`
	Cached   bool    `json:"cached"`
	Version  string  `json:"version"`
}

// Resolve 按坐标查询时区；sys 非 WGS84 时先转换
func (s *Service) Resolve(ctx context.Context, lng, lat float64, sys coordsys.System) Lookup {
	p := coordsys.ToWGS84(sys, orb.Point{lng, lat})
	lng, lat = p[0], p[1]
	version := s.Finder.DataVersion()
	load := func() cache.Entry {
		r := s.Finder.Lookup(lng, lat)
		return cache.Entry{Name: r.Name, Fallback: r.Fallback}
	}
	var e cache.Entry
	var hit bool
	if s.Cache != nil {
		e, hit = s.Cache.GetOrLoad(ctx, cache.Key(version, lng, lat), load)
	} else {
		e = load()
	}
	metrics.LookupsTotal.Inc()
	if e.Fallback {
		metrics.FallbackTotal.Inc()
	}
	if err := s.Stats.IncrStats(ctx, e.Name, e.Fallback); err != nil {
		logger.L().Debug("stats_incr_error", "err", err)
	}
	logger.Annotate(ctx, "zone", e.Name, "fallback", e.Fallback, "cached", hit)
	return Lookup{Lng: lng, Lat: lat, Timezone: e.Name, Fallback: e.Fallback, Cached: hit, Version: version}
}

// CountVisitor 当日首次出现的访客计入统计；依赖 Redis 位图去重
func (s *Service) CountVisitor(ctx context.Context, ip string) {
	if s.Redis == nil || s.Stats == nil || ip == "" {
		return
	}
	pos := bloomPositions([]byte(ip), visitorBloomBits, visitorBloomHashes)
	first, err := bloomCheckAndSet(ctx, s.Redis, visitorKey(time.Now()), pos, 48*time.Hour)
	if err != nil {
		logger.L().Debug("visitor_bloom_error", "err", err)
		return
	}
	if first {
		_ = s.Stats.IncrVisitor(ctx)
	}
}

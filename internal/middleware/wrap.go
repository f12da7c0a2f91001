package middleware

import (
	"net/http"

	"tz-api/internal/config"
	"tz-api/internal/logger"
)

// Wrap 按配置组装入口中间件：白名单 → 限流 → 地理头注入
func Wrap(next http.Handler, c config.Config) http.Handler {
	h := GeoContext(next)
	if c.RateLimit.Enabled && c.RateLimit.QPS > 0 {
		h = NewRateLimiter(c.RateLimit.QPS, c.RateLimit.Burst, c.Origin.RealIPHeader).Wrap(h)
		logger.L().Info("rate_limit_enabled", "qps", c.RateLimit.QPS, "burst", c.RateLimit.Burst)
	}
	if c.Origin.Enabled {
		h = NewAllowlist(c.Origin.AllowIPs, c.Origin.AllowCIDRs, c.Origin.AllowLocal, c.Origin.RealIPHeader).Wrap(h)
		logger.L().Info("origin_defense_enabled")
	}
	return h
}

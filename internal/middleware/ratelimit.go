// 包 middleware：入口层的限流、源站白名单与客户端地理信息解析
package middleware

import (
	"net/http"
	"time"

	"tz-api/internal/logger"
	"tz-api/internal/metrics"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// 文档注释：按客户端 IP 的令牌桶限流
// 背景：在流量峰值时对入口进行限速，避免单一来源占满查询能力。
// 约束：不排队，超限直接返回 429；空闲 10 分钟的客户端令牌桶自动回收。
type RateLimiter struct {
	qps     rate.Limit
	burst   int
	header  string
	buckets *ttlcache.Cache[string, *rate.Limiter]
}

func NewRateLimiter(qps float64, burst int, realIPHeader string) *RateLimiter {
	if burst <= 0 {
		burst = max(1, int(qps))
	}
	c := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](10 * time.Minute),
	)
	go c.Start()
	return &RateLimiter{qps: rate.Limit(qps), burst: burst, header: realIPHeader, buckets: c}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if it := rl.buckets.Get(key); it != nil {
		return it.Value()
	}
	it, _ := rl.buckets.GetOrSet(key, rate.NewLimiter(rl.qps, rl.burst))
	return it.Value()
}

// Allow 供非 HTTP 调用方直接使用
func (rl *RateLimiter) Allow(key string) bool { return rl.limiter(key).Allow() }

func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "unknown"
		if ip := RemoteIP(r, rl.header); ip != nil {
			key = ip.String()
		}
		if !rl.Allow(key) {
			metrics.RateLimitedTotal.Inc()
			logger.L().Debug("rate_limited", "client", key, "path", r.URL.Path)
			w.Header().Set("retry-after", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) Close() { rl.buckets.Stop() }

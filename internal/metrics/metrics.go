package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzapi_requests_total",
		Help: "Total number of API requests by endpoint and status",
	}, []string{"endpoint", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tzapi_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 200, 500},
	}, []string{"endpoint"})
	LookupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tzapi_lookups_total",
		Help: "Total coordinate lookups resolved by the finder",
	})
	FallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tzapi_fallback_total",
		Help: "Total lookups answered by the longitude band fallback",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzapi_cache_hits_total",
		Help: "Cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzapi_cache_misses_total",
		Help: "Cache misses by tier",
	}, []string{"tier"})
	IPLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzapi_ip_lookups_total",
		Help: "IP to coordinate lookups by result",
	}, []string{"result"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tzapi_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
	DatasetInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tzapi_dataset_info",
		Help: "Loaded dataset, value is the polygon count",
	}, []string{"version", "index"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(IPLookupsTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(DatasetInfo)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }

package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"tz-api/internal/logger"
)

// RemoteIP 请求来源 IP：配置了 header 时取其首个有效 IP，否则取 RemoteAddr
func RemoteIP(r *http.Request, header string) net.IP {
	if header != "" {
		if raw := r.Header.Get(header); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}

// ClientIP 访问者 IP，依次尝试常见反向代理头，最后回退 RemoteAddr
// 约束：头部可被伪造，仅用于查询与统计，不用于鉴权。
func ClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		first, _, _ := strings.Cut(x, ",")
		return strings.TrimSpace(first)
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip", "x-edge-client-ip", "x-edgeone-ip", "x-eo-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := strings.Trim(x[i+4:], "\" ")
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\"[]")
		}
	}
	if ip := RemoteIP(r, ""); ip != nil {
		return ip.String()
	}
	return ""
}

// 文档注释：CDN 注入的访问者地理信息
// 背景：EdgeOne 与 Cloudflare 可在回源请求头中携带访问者经纬度，存在时无需再查 IP 库。
// 约束：经纬度需同时存在、可解析且在合法范围内才算有效；NaN 与越界值忽略。
type ClientGeo struct {
	IP       string
	Country  string
	City     string
	Lat      float64
	Lng      float64
	HasCoord bool
	Source   string
}

type geoKey struct{}

// ParseClientGeo 读取 EdgeOne（X-EO-Geo-*）或 Cloudflare（cf-ip*）的地理头
func ParseClientGeo(r *http.Request) ClientGeo {
	h := r.Header
	g := ClientGeo{IP: ClientIP(r)}
	switch {
	case h.Get("X-EO-Geo-Latitude") != "":
		g.Source = "edgeone"
		g.Country = h.Get("X-EO-Geo-CountryCodeAlpha2")
		g.City = h.Get("X-EO-Geo-City")
		g.Lat, g.Lng, g.HasCoord = parseLatLng(h.Get("X-EO-Geo-Latitude"), h.Get("X-EO-Geo-Longitude"))
	case h.Get("cf-iplatitude") != "":
		g.Source = "cloudflare"
		g.Country = h.Get("cf-ipcountry")
		g.City = h.Get("cf-ipcity")
		g.Lat, g.Lng, g.HasCoord = parseLatLng(h.Get("cf-iplatitude"), h.Get("cf-iplongitude"))
	}
	return g
}

func parseLatLng(lat, lng string) (float64, float64, bool) {
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err1 != nil || err2 != nil || math.IsNaN(la) || math.IsNaN(lo) || la < -90 || la > 90 || lo < -180 || lo > 180 {
		return 0, 0, false
	}
	return la, lo, true
}

// GeoContext 解析 CDN 地理头并注入上下文，解析失败不阻断主流程
func GeoContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g := ParseClientGeo(r)
		if g.Source != "" {
			logger.L().Debug("client_geo_inject", "source", g.Source, "ip", g.IP, "country", g.Country, "has_coord", g.HasCoord)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), geoKey{}, g)))
	})
}

// GeoFrom 取出 GeoContext 注入的信息；未经过中间件时现场解析
func GeoFrom(r *http.Request) ClientGeo {
	if g, ok := r.Context().Value(geoKey{}).(ClientGeo); ok {
		return g
	}
	return ParseClientGeo(r)
}

package middleware

import (
	"net"
	"net/http"
	"strings"

	"tz-api/internal/logger"
)

// 文档注释：源站白名单（单 IP + CIDR）
// 背景：部署在 CDN 之后时，仅允许回源网段与指定调试 IP 直接访问，其他请求统一返回 403。
// 约束：支持 IPv4/IPv6 CIDR；真实来源 IP 以 RemoteAddr 为准，配置 realIPHeader 时取该头的首个有效 IP。
type Allowlist struct {
	ips    map[string]struct{}
	cidrs  []*net.IPNet
	header string
}

// NewAllowlist ips、cidrs 为逗号分隔列表，非法项忽略
func NewAllowlist(ips, cidrs string, allowLocal bool, realIPHeader string) *Allowlist {
	a := &Allowlist{ips: map[string]struct{}{}, header: strings.TrimSpace(realIPHeader)}
	for _, p := range splitList(ips) {
		if ip := net.ParseIP(p); ip != nil {
			a.ips[ip.String()] = struct{}{}
		}
	}
	for _, c := range splitList(cidrs) {
		if _, n, err := net.ParseCIDR(c); err == nil {
			a.cidrs = append(a.cidrs, n)
		} else {
			logger.L().Debug("origin_allowlist_bad_cidr", "cidr", c)
		}
	}
	if allowLocal {
		a.ips["127.0.0.1"] = struct{}{}
		a.ips["::1"] = struct{}{}
	}
	return a
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (a *Allowlist) Allowed(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if _, ok := a.ips[ip.String()]; ok {
		return true
	}
	for _, n := range a.cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (a *Allowlist) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RemoteIP(r, a.header)
		if a.Allowed(ip) {
			next.ServeHTTP(w, r)
			return
		}
		logger.L().Debug("origin_defense_block", "ip", ip, "path", r.URL.Path)
		w.Header().Set("content-type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	})
}

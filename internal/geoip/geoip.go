// 包 geoip：IP 到经纬度的本地 mmdb 查询，用于按访问者 IP 推断时区
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"tz-api/internal/logger"

	"github.com/oschwald/geoip2-golang"
)

var (
	ErrDisabled   = errors.New("geoip: database not loaded")
	ErrBadIP      = errors.New("geoip: invalid ip")
	ErrNoLocation = errors.New("geoip: no coordinates for ip")
)

// Location IP 查询结果；TimeZone 为 mmdb 自带的时区字段，仅作参考
type Location struct {
	IP             string  `json:"ip"`
	Lng            float64 `json:"lng"`
	Lat            float64 `json:"lat"`
	AccuracyRadius uint16  `json:"accuracy_km"`
	Country        string  `json:"country,omitempty"`
	City           string  `json:"city,omitempty"`
	TimeZone       string  `json:"mmdb_time_zone,omitempty"`
}

// Reader GeoLite2/GeoIP2 City 数据库；nil *Reader 合法，查询返回 ErrDisabled
type Reader struct {
	db *geoip2.Reader
}

func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	m := db.Metadata()
	logger.L().Info("geoip_ready", "path", path, "type", m.DatabaseType, "build", m.BuildEpoch)
	return &Reader{db: db}, nil
}

// OpenOptional 路径为空或打开失败时返回 nil，只记录日志
func OpenOptional(path string) *Reader {
	if path == "" {
		return nil
	}
	r, err := Open(path)
	if err != nil {
		logger.L().Info("geoip_disabled", "err", err)
		return nil
	}
	return r
}

func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}

// Lookup 解析 IP 并查询城市库；没有坐标的记录（如仅到国家级的保留段）返回 ErrNoLocation
func (r *Reader) Lookup(ip string) (Location, error) {
	if r == nil {
		return Location{}, ErrDisabled
	}
	p := ParseIP(ip)
	if p == nil {
		return Location{}, fmt.Errorf("%w: %q", ErrBadIP, ip)
	}
	rec, err := r.db.City(p)
	if err != nil {
		return Location{}, fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 && rec.Location.AccuracyRadius == 0 {
		return Location{}, fmt.Errorf("%w: %s", ErrNoLocation, ip)
	}
	return Location{
		IP:             p.String(),
		Lng:            rec.Location.Longitude,
		Lat:            rec.Location.Latitude,
		AccuracyRadius: rec.Location.AccuracyRadius,
		Country:        rec.Country.IsoCode,
		City:           rec.City.Names["en"],
		TimeZone:       rec.Location.TimeZone,
	}, nil
}

// ParseIP 宽松解析：去掉空白、端口与 IPv6 方括号
func ParseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if p := net.ParseIP(s); p != nil {
		return p
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(strings.Trim(s, "[]"))
}

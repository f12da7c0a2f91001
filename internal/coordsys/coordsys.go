// 包 coordsys：国内地图坐标系（GCJ-02 / BD-09）到 WGS84 的近似转换
package coordsys

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

type System string

const (
	WGS84 System = "wgs84"
	GCJ02 System = "gcj02"
	BD09  System = "bd09"
)

// Parse 接受 "GCJ-02"、"gcj02"、"bd-09" 等写法；空串视为 WGS84
func Parse(s string) (System, error) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	switch s {
	case "", "wgs84":
		return WGS84, nil
	case "gcj02":
		return GCJ02, nil
	case "bd09":
		return BD09, nil
	}
	return "", fmt.Errorf("coordsys: unknown coordinate system %q", s)
}

// 文档注释：转换到 WGS84
// 背景：国内互联网地图坐标需转换以贴合全球边界数据；境外坐标原样返回。
// 约束：逆变换为一次迭代近似，误差在数米到数十米级，远小于时区边界数据的精度。
func ToWGS84(sys System, p orb.Point) orb.Point {
	switch sys {
	case GCJ02:
		return gcjToWGS(p)
	case BD09:
		return gcjToWGS(bdToGCJ(p))
	}
	return p
}

// FromWGS84 正向偏移，仅用于测试与生成演示数据
func FromWGS84(sys System, p orb.Point) orb.Point {
	switch sys {
	case GCJ02:
		return wgsToGCJ(p)
	case BD09:
		return gcjToBD(wgsToGCJ(p))
	}
	return p
}

const (
	axis = 6378245.0
	ee   = 0.00669342162296594323
	xPi  = math.Pi * 3000.0 / 180.0
)

func outOfChina(p orb.Point) bool {
	return p[0] < 72.004 || p[0] > 137.8347 || p[1] < 0.8293 || p[1] > 55.8271
}

func wgsToGCJ(p orb.Point) orb.Point {
	if outOfChina(p) {
		return p
	}
	lng, lat := p[0], p[1]
	dLat := transformLat(lng-105.0, lat-35.0)
	dLng := transformLng(lng-105.0, lat-35.0)
	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - ee*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((axis * (1 - ee)) / (magic * sqrtMagic) * math.Pi)
	dLng = (dLng * 180.0) / (axis / sqrtMagic * math.Cos(radLat) * math.Pi)
	return orb.Point{lng + dLng, lat + dLat}
}

func gcjToWGS(p orb.Point) orb.Point {
	g := wgsToGCJ(p)
	return orb.Point{p[0]*2 - g[0], p[1]*2 - g[1]}
}

func bdToGCJ(p orb.Point) orb.Point {
	x := p[0] - 0.0065
	y := p[1] - 0.006
	z := math.Sqrt(x*x+y*y) - 0.00002*math.Sin(y*xPi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*xPi)
	return orb.Point{z * math.Cos(theta), z * math.Sin(theta)}
}

func gcjToBD(p orb.Point) orb.Point {
	x, y := p[0], p[1]
	z := math.Sqrt(x*x+y*y) + 0.00002*math.Sin(y*xPi)
	theta := math.Atan2(y, x) + 0.000003*math.Cos(x*xPi)
	return orb.Point{z*math.Cos(theta) + 0.0065, z*math.Sin(theta) + 0.006}
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLng(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}

package tzgeo

import (
	"math"
	"strconv"
)

// 兜底分带常量：每带 15°，以 15° 的整数倍为中心，反子午线两侧的半带分别归入 ±12
const (
	BandWidth    = 15.0
	BandHalf     = BandWidth / 2
	MaxBandIndex = 12
)

// FallbackOffset 经度对应的名义 UTC 偏移小时数（东正西负）
// 约束：band = floor((lng + 7.5) / 15)，结果限制在 [-12, 12]；7.5°E 归入 +1 带，7.5°W 归入 0 带。
func FallbackOffset(lng float64) int {
	lng, _ = Normalize(lng, 0)
	band := int(math.Floor((lng + BandHalf) / BandWidth))
	if band > MaxBandIndex {
		band = MaxBandIndex
	}
	if band < -MaxBandIndex {
		band = -MaxBandIndex
	}
	return band
}

// FallbackName 仅由经度推出的固定偏移时区名，纬度不参与
// 约束：Etc 区名的符号与 UTC 偏移相反，例如 UTC-5 对应 "Etc/GMT+5"。
func FallbackName(lng float64) string {
	off := FallbackOffset(lng)
	switch {
	case off == 0:
		return "Etc/GMT"
	case off > 0:
		return "Etc/GMT-" + strconv.Itoa(off)
	default:
		return "Etc/GMT+" + strconv.Itoa(-off)
	}
}

// Normalize 将任意输入规整为合法坐标，避免越界输入进入判定
// 约束：NaN 视为 0，经度无穷大同样视为 0；经度超出 [-180,180] 时回绕到 [-180,180)；纬度截断到 [-90,90]。
func Normalize(lng, lat float64) (float64, float64) {
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		lng = 0
	}
	if math.IsNaN(lat) {
		lat = 0
	}
	if lng < -180 || lng > 180 {
		lng = math.Mod(lng+180, 360)
		if lng < 0 {
			lng += 360
		}
		lng -= 180
	}
	if lat < -90 {
		lat = -90
	} else if lat > 90 {
		lat = 90
	}
	return lng, lat
}

// 包 zoneinfo：时区名到当前偏移、缩写与地方太阳时的换算
package zoneinfo

import (
	"fmt"
	"math"
	"sync"
	"time"
	_ "time/tzdata"
)

// Details 某一时刻下时区的展示信息
type Details struct {
	Name          string `json:"name"`
	Abbreviation  string `json:"abbreviation"`
	Offset        string `json:"offset"`
	OffsetSeconds int    `json:"offset_seconds"`
	LocalTime     string `json:"local_time"`
	SolarTime     string `json:"solar_time"`
}

var locs sync.Map // name -> *time.Location

// Load 带进程内缓存的 time.LoadLocation；时区名集合有限，缓存不淘汰
func Load(name string) (*time.Location, error) {
	if v, ok := locs.Load(name); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	v, _ := locs.LoadOrStore(name, loc)
	return v.(*time.Location), nil
}

// Describe 计算时区在 t 时刻的偏移与缩写，以及经度 lng 处的地方平太阳时
func Describe(name string, lng float64, t time.Time) (Details, error) {
	loc, err := Load(name)
	if err != nil {
		return Details{}, fmt.Errorf("zoneinfo: %s: %w", name, err)
	}
	local := t.In(loc)
	abbr, off := local.Zone()
	return Details{
		Name:          name,
		Abbreviation:  abbr,
		Offset:        FormatOffset(off),
		OffsetSeconds: off,
		LocalTime:     local.Format(time.RFC3339),
		SolarTime:     SolarTime(t, lng).Format(time.TimeOnly),
	}, nil
}

// FormatOffset 秒数格式化为 "+08:00" / "-03:30"
func FormatOffset(sec int) string {
	sign := '+'
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	return fmt.Sprintf("%c%02d:%02d", sign, sec/3600, sec%3600/60)
}

// SolarTime 地方平太阳时：UTC 加上经度每度 4 分钟（取整到秒），结果以 UTC 时区表示
func SolarTime(t time.Time, lng float64) time.Time {
	return t.UTC().Add(time.Duration(math.Round(lng*240)) * time.Second)
}

// UniqueByOffset 按 t 时刻的 UTC 偏移去重，每个偏移保留首个时区名；无法解析的名称跳过
func UniqueByOffset(names []string, t time.Time) []string {
	seen := make(map[int]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		loc, err := Load(n)
		if err != nil {
			continue
		}
		_, off := t.In(loc).Zone()
		if _, ok := seen[off]; ok {
			continue
		}
		seen[off] = struct{}{}
		out = append(out, n)
	}
	return out
}

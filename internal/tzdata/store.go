// 包 tzdata：时区多边形存储，单遍解码紧凑二进制数据集，加载后只读
package tzdata

import (
	"time"

	"tz-api/internal/logger"
	"tz-api/internal/tzgeo"
)

// 文档注释：多边形存储
// 约束：polys 保持数据集顺序（同名时区的多个多边形展开为多条），该顺序即重叠命中时的裁决顺序；
// 构建后不再修改，可被任意数量的读者并发访问。
type Store struct {
	polys   []tzgeo.Polygon
	names   []string
	version string
	reduced bool
}

// Load 解析数据集字节；失败时返回 *DatasetError，不返回部分结果
func Load(data []byte) (*Store, error) {
	t0 := time.Now()
	ds, err := decode(data)
	if err != nil {
		logger.L().Debug("tzdata_load_error", "err", err, "bytes", len(data))
		return nil, err
	}
	if ds.version == "" {
		return nil, &DatasetError{Kind: ErrVersionMissing, Offset: len(data)}
	}
	st := fromZones(ds.version, ds.zones)
	st.reduced = ds.reduced
	logger.L().Debug("tzdata_load_done",
		"version", st.version,
		"zones", len(st.names),
		"polygons", len(st.polys),
		"bytes", len(data),
		"ms", time.Since(t0).Milliseconds(),
	)
	return st, nil
}

// NewStore 由内存中的条目直接构建存储，校验规则与 Load 一致
func NewStore(version string, zones []Zone) (*Store, error) {
	if version == "" {
		return nil, &DatasetError{Kind: ErrVersionMissing}
	}
	for _, z := range zones {
		if z.Name == "" {
			return nil, malformed(0, "timezone without name")
		}
		for _, p := range z.Polygons {
			if len(p.Points) == 0 {
				return nil, malformed(0, "%s: empty outer ring", z.Name)
			}
			for _, pt := range p.Points {
				if !validCoord(pt) {
					return nil, malformed(0, "%s: coordinate out of range: %v", z.Name, pt)
				}
			}
			for _, h := range p.Holes {
				for _, pt := range h {
					if !validCoord(pt) {
						return nil, malformed(0, "%s: coordinate out of range: %v", z.Name, pt)
					}
				}
			}
		}
	}
	return fromZones(version, zones), nil
}

func fromZones(version string, zones []Zone) *Store {
	st := &Store{version: version}
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if _, ok := seen[z.Name]; !ok {
			seen[z.Name] = struct{}{}
			st.names = append(st.names, z.Name)
		}
		for _, p := range z.Polygons {
			st.polys = append(st.polys, tzgeo.NewPolygon(z.Name, p.Points, p.Holes...))
		}
	}
	return st
}

func (s *Store) Polygons() []tzgeo.Polygon { return s.polys }
func (s *Store) Polygon(i int) tzgeo.Polygon { return s.polys[i] }
func (s *Store) Len() int                   { return len(s.polys) }
func (s *Store) Version() string            { return s.version }
func (s *Store) Reduced() bool              { return s.reduced }

// Names 时区名（去重，按数据集首次出现顺序）；返回副本
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Indices 指定时区名对应的多边形下标，按存储顺序
func (s *Store) Indices(name string) []int {
	var out []int
	for i := range s.polys {
		if s.polys[i].Name == name {
			out = append(out, i)
		}
	}
	return out
}

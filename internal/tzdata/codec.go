package tzdata

import (
	"math"

	"tz-api/internal/tzgeo"

	"google.golang.org/protobuf/encoding/protowire"
)

// 文档注释：数据集编码（protobuf 线格式，兼容 tzf 的 Timezones 消息）
// Timezones{1: repeated Timezone, 2: bool reduced, 3: string version}
// Timezone{1: repeated Polygon, 2: string name}
// Polygon{1: repeated Point, 2: repeated Polygon holes}
// Point{1: float lng, 2: float lat}（fixed32 定长）
// 约束：所有嵌套消息均带长度前缀，截断会在解析时暴露；version 为最后一个顶层字段，
// 在顶层字段边界处截断时表现为版本缺失。未知字段跳过。
const (
	fieldZones   protowire.Number = 1
	fieldReduced protowire.Number = 2
	fieldVersion protowire.Number = 3

	fieldZonePolygons protowire.Number = 1
	fieldZoneName     protowire.Number = 2

	fieldPolyPoints protowire.Number = 1
	fieldPolyHoles  protowire.Number = 2

	fieldPointLng protowire.Number = 1
	fieldPointLat protowire.Number = 2
)

// Zone 数据集中的时区条目，可包含多个多边形
type Zone struct {
	Name     string
	Polygons []RawPolygon
}

// RawPolygon 未计算包围盒的原始多边形
type RawPolygon struct {
	Points []tzgeo.Point
	Holes  [][]tzgeo.Point
}

type dataset struct {
	version string
	reduced bool
	zones   []Zone
}

type field struct {
	num protowire.Number
	typ protowire.Type
	off int // 值的绝对偏移
	raw []byte
	u64 uint64
}

// eachField 单遍遍历一条消息的字段；base 为该消息在整个缓冲区中的起始偏移
func eachField(b []byte, base int, fn func(f field) error) error {
	off := 0
	for off < len(b) {
		num, typ, n := protowire.ConsumeTag(b[off:])
		if n < 0 {
			return malformed(base+off, "bad tag: %v", protowire.ParseError(n))
		}
		off += n
		f := field{num: num, typ: typ, off: base + off}
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b[off:])
			if m < 0 {
				return malformed(base+off, "field %d: %v", num, protowire.ParseError(m))
			}
			f.off += m - len(v)
			f.raw = v
			off += m
		case protowire.Fixed32Type:
			v, m := protowire.ConsumeFixed32(b[off:])
			if m < 0 {
				return malformed(base+off, "field %d: %v", num, protowire.ParseError(m))
			}
			f.u64 = uint64(v)
			off += m
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b[off:])
			if m < 0 {
				return malformed(base+off, "field %d: %v", num, protowire.ParseError(m))
			}
			f.u64 = v
			off += m
		default:
			m := protowire.ConsumeFieldValue(num, typ, b[off:])
			if m < 0 {
				return malformed(base+off, "field %d: %v", num, protowire.ParseError(m))
			}
			off += m
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func expect(f field, typ protowire.Type) error {
	if f.typ != typ {
		return malformed(f.off, "field %d: wire type %d, want %d", f.num, f.typ, typ)
	}
	return nil
}

func decode(b []byte) (*dataset, error) {
	ds := &dataset{}
	err := eachField(b, 0, func(f field) error {
		switch f.num {
		case fieldZones:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			z, err := decodeZone(f.raw, f.off)
			if err != nil {
				return err
			}
			ds.zones = append(ds.zones, z)
		case fieldReduced:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			ds.reduced = f.u64 != 0
		case fieldVersion:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			ds.version = string(f.raw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func decodeZone(b []byte, base int) (Zone, error) {
	var z Zone
	err := eachField(b, base, func(f field) error {
		switch f.num {
		case fieldZonePolygons:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			p, err := decodePolygon(f.raw, f.off)
			if err != nil {
				return err
			}
			if len(p.Points) == 0 {
				return malformed(f.off, "empty outer ring")
			}
			z.Polygons = append(z.Polygons, p)
		case fieldZoneName:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			z.Name = string(f.raw)
		}
		return nil
	})
	if err != nil {
		return z, err
	}
	if z.Name == "" {
		return z, malformed(base, "timezone without name")
	}
	return z, nil
}

func decodePolygon(b []byte, base int) (RawPolygon, error) {
	var p RawPolygon
	err := eachField(b, base, func(f field) error {
		switch f.num {
		case fieldPolyPoints:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			pt, err := decodePoint(f.raw, f.off)
			if err != nil {
				return err
			}
			p.Points = append(p.Points, pt)
		case fieldPolyHoles:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			// 洞只取外环点，洞内嵌套的洞不参与判定
			h, err := decodePolygon(f.raw, f.off)
			if err != nil {
				return err
			}
			if len(h.Points) > 0 {
				p.Holes = append(p.Holes, h.Points)
			}
		}
		return nil
	})
	return p, err
}

func decodePoint(b []byte, base int) (tzgeo.Point, error) {
	var pt tzgeo.Point
	err := eachField(b, base, func(f field) error {
		switch f.num {
		case fieldPointLng, fieldPointLat:
			if err := expect(f, protowire.Fixed32Type); err != nil {
				return err
			}
			v := float64(math.Float32frombits(uint32(f.u64)))
			if f.num == fieldPointLng {
				pt[0] = v
			} else {
				pt[1] = v
			}
		}
		return nil
	})
	if err != nil {
		return pt, err
	}
	if !validCoord(pt) {
		return pt, malformed(base, "coordinate out of range: %v", pt)
	}
	return pt, nil
}

func validCoord(pt tzgeo.Point) bool {
	lng, lat := pt[0], pt[1]
	if math.IsNaN(lng) || math.IsNaN(lat) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// Encode 按同一线格式写出数据集；坐标以 float32 存储
func Encode(version string, zones []Zone) []byte {
	var b []byte
	for _, z := range zones {
		b = protowire.AppendTag(b, fieldZones, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeZone(z))
	}
	if version != "" {
		b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
		b = protowire.AppendString(b, version)
	}
	return b
}

func encodeZone(z Zone) []byte {
	var b []byte
	for _, p := range z.Polygons {
		b = protowire.AppendTag(b, fieldZonePolygons, protowire.BytesType)
		b = protowire.AppendBytes(b, encodePolygon(p.Points, p.Holes))
	}
	b = protowire.AppendTag(b, fieldZoneName, protowire.BytesType)
	return protowire.AppendString(b, z.Name)
}

func encodePolygon(pts []tzgeo.Point, holes [][]tzgeo.Point) []byte {
	var b []byte
	for _, pt := range pts {
		var pb []byte
		pb = protowire.AppendTag(pb, fieldPointLng, protowire.Fixed32Type)
		pb = protowire.AppendFixed32(pb, math.Float32bits(float32(pt[0])))
		pb = protowire.AppendTag(pb, fieldPointLat, protowire.Fixed32Type)
		pb = protowire.AppendFixed32(pb, math.Float32bits(float32(pt[1])))
		b = protowire.AppendTag(b, fieldPolyPoints, protowire.BytesType)
		b = protowire.AppendBytes(b, pb)
	}
	for _, h := range holes {
		b = protowire.AppendTag(b, fieldPolyHoles, protowire.BytesType)
		b = protowire.AppendBytes(b, encodePolygon(h, nil))
	}
	return b
}

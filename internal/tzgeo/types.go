// 包 tzgeo：时区多边形的最小几何结构与点入多边形判定
package tzgeo

import (
	"github.com/paulmach/orb"
)

// Point 经纬度坐标，X 为经度，Y 为纬度
type Point = orb.Point

// Position 点相对于环的位置
type Position uint8

const (
	Outside Position = iota
	Inside
	OnBoundary
)

func (p Position) String() string {
	switch p {
	case Inside:
		return "inside"
	case OnBoundary:
		return "boundary"
	default:
		return "outside"
	}
}

// Locator 环的能力集合：包围盒 + 点定位
// 约束：Locate 需对边上的点返回 OnBoundary，洞的扣除逻辑依赖这一点。
type Locator interface {
	Bound() orb.Bound
	Locate(pt Point) Position
}

// 文档注释：闭合环
// 约束：首尾闭合边为隐式；数据中显式重复首点的写法同样可用（零长度边不影响判定）。
type Ring struct {
	pts   orb.Ring
	bound orb.Bound
}

func NewRing(pts []Point) Ring {
	r := orb.Ring(pts)
	var b orb.Bound
	if len(r) > 0 {
		b = r.Bound()
	}
	return Ring{pts: r, bound: b}
}

func (r Ring) Bound() orb.Bound { return r.bound }
func (r Ring) Points() orb.Ring  { return r.pts }
func (r Ring) Len() int          { return len(r.pts) }

// 文档注释：时区多边形
// 约束：Outer 为外环，Holes 为洞；BBox 取外环包围盒，加载时一次性计算，之后只读。
type Polygon struct {
	Name  string
	Outer Ring
	Holes []Ring
}

func NewPolygon(name string, outer []Point, holes ...[]Point) Polygon {
	p := Polygon{Name: name, Outer: NewRing(outer)}
	for _, h := range holes {
		if len(h) == 0 {
			continue
		}
		p.Holes = append(p.Holes, NewRing(h))
	}
	return p
}

func (p Polygon) BBox() orb.Bound { return p.Outer.Bound() }

// Contains 闭合包含判定（边界视为内部）
func (p Polygon) Contains(pt Point) bool {
	return Covers(p.Outer, p.Holes, pt)
}

// Orb 转换为 orb.Polygon，供 GeoJSON 输出
func (p Polygon) Orb() orb.Polygon {
	out := make(orb.Polygon, 0, 1+len(p.Holes))
	out = append(out, closeRing(p.Outer.pts))
	for _, h := range p.Holes {
		out = append(out, closeRing(h.pts))
	}
	return out
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) == 0 || r.Closed() {
		return r
	}
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	return append(out, r[0])
}

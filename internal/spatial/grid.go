package spatial

import (
	"math"

	"github.com/paulmach/orb"
)

// cellKey 打包的格子键：高 16 位为行，低 16 位为列
type cellKey uint32

func newCellKey(col, row int) cellKey { return cellKey(uint32(row)<<16 | uint32(col)&0xffff) }
func (k cellKey) col() int            { return int(k & 0xffff) }
func (k cellKey) row() int            { return int(k >> 16) }

// 文档注释：等经纬度网格索引
// 约束：每个多边形登记到其包围盒覆盖的全部格子；格子内下标按存储顺序追加，因此天然升序。
// 查询时再用包围盒过滤一次，返回结果与 R-Tree 实现一致。
type Grid struct {
	size  float64
	cols  int
	rows  int
	cells map[cellKey][]int32
	boxes []orb.Bound
}

func newGrid(bounds []orb.Bound, size float64) *Grid {
	if !(size > 0) {
		size = DefaultCellDeg
	}
	// 列号占 16 位
	size = min(max(size, 0.01), 360)
	g := &Grid{
		size:  size,
		cols:  int(math.Ceil(360 / size)),
		rows:  int(math.Ceil(180 / size)),
		cells: make(map[cellKey][]int32),
		boxes: bounds,
	}
	for i, b := range bounds {
		c0, r0 := g.cellOf(b.Min[0], b.Min[1])
		c1, r1 := g.cellOf(b.Max[0], b.Max[1])
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				k := newCellKey(c, r)
				g.cells[k] = append(g.cells[k], int32(i))
			}
		}
	}
	return g
}

// cellOf 坐标所在格子；越界输入截断到边缘格子
func (g *Grid) cellOf(lng, lat float64) (int, int) {
	return clampInt(math.Floor((lng+180)/g.size), g.cols-1), clampInt(math.Floor((lat+90)/g.size), g.rows-1)
}

func clampInt(v float64, hi int) int {
	if !(v > 0) {
		return 0
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}

func (g *Grid) Candidates(lng, lat float64, dst []int) []int {
	pt := orb.Point{lng, lat}
	for _, i := range g.cells[newCellKey(g.cellOf(lng, lat))] {
		if g.boxes[i].Contains(pt) {
			dst = append(dst, int(i))
		}
	}
	return dst
}

func (g *Grid) Cells(i int) []orb.Bound {
	if i < 0 || i >= len(g.boxes) {
		return nil
	}
	b := g.boxes[i]
	c0, r0 := g.cellOf(b.Min[0], b.Min[1])
	c1, r1 := g.cellOf(b.Max[0], b.Max[1])
	out := make([]orb.Bound, 0, (c1-c0+1)*(r1-r0+1))
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			out = append(out, g.cellBound(newCellKey(c, r)))
		}
	}
	return out
}

func (g *Grid) cellBound(k cellKey) orb.Bound {
	minLng := -180 + float64(k.col())*g.size
	minLat := -90 + float64(k.row())*g.size
	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{math.Min(minLng+g.size, 180), math.Min(minLat+g.size, 90)},
	}
}

func (g *Grid) Kind() Kind { return KindGrid }
func (g *Grid) Len() int   { return len(g.boxes) }

// CellCount 非空格子数
func (g *Grid) CellCount() int { return len(g.cells) }

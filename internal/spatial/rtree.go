package spatial

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// RTree 包围盒 R-Tree，数据为多边形下标
type RTree struct {
	tr    rtree.RTreeG[int]
	boxes []orb.Bound
}

func newRTree(bounds []orb.Bound) *RTree {
	t := &RTree{boxes: bounds}
	for i, b := range bounds {
		t.tr.Insert([2]float64(b.Min), [2]float64(b.Max), i)
	}
	return t
}

func (t *RTree) Candidates(lng, lat float64, dst []int) []int {
	start := len(dst)
	p := [2]float64{lng, lat}
	t.tr.Search(p, p, func(_, _ [2]float64, i int) bool {
		if t.boxes[i].Contains(orb.Point(p)) {
			dst = append(dst, i)
		}
		return true
	})
	// 遍历顺序取决于树形，排序后与存储顺序一致
	slices.Sort(dst[start:])
	return dst
}

func (t *RTree) Cells(i int) []orb.Bound {
	if i < 0 || i >= len(t.boxes) {
		return nil
	}
	return []orb.Bound{t.boxes[i]}
}

func (t *RTree) Kind() Kind { return KindRTree }
func (t *RTree) Len() int   { return len(t.boxes) }

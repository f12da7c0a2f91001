// 包 spatial：基于包围盒的候选多边形粗筛索引
package spatial

import (
	"fmt"
	"strings"
	"time"

	"tz-api/internal/logger"
	"tz-api/internal/tzdata"

	"github.com/paulmach/orb"
)

// 文档注释：空间索引
// 约束：Candidates 追加包围盒包含该点的多边形下标，按存储顺序升序；允许多报，不允许漏报。
// 不同实现对同一存储返回相同集合，索引只用于剪枝，最终命中由精确判定决定。
type Index interface {
	Candidates(lng, lat float64, dst []int) []int
	// Cells 多边形 i 在索引中登记的格子/节点范围
	Cells(i int) []orb.Bound
	Kind() Kind
	Len() int
}

type Kind string

const (
	KindRTree Kind = "rtree"
	KindGrid  Kind = "grid"
)

const DefaultCellDeg = 1.0

type Options struct {
	Kind    Kind
	CellDeg float64 // 仅 grid 使用；>=360 时退化为单一格子
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindRTree):
		return KindRTree, nil
	case string(KindGrid):
		return KindGrid, nil
	}
	return "", fmt.Errorf("spatial: unknown index kind %q", s)
}

// Build 由存储的包围盒构建索引，纯函数，无失败路径
func Build(st *tzdata.Store, o Options) Index {
	polys := st.Polygons()
	bounds := make([]orb.Bound, len(polys))
	for i := range polys {
		bounds[i] = polys[i].BBox()
	}
	return BuildBounds(bounds, o)
}

func BuildBounds(bounds []orb.Bound, o Options) Index {
	t0 := time.Now()
	var idx Index
	switch o.Kind {
	case KindGrid:
		idx = newGrid(bounds, o.CellDeg)
	default:
		idx = newRTree(bounds)
	}
	logger.L().Debug("spatial_index_built",
		"kind", idx.Kind(),
		"polygons", len(bounds),
		"ms", time.Since(t0).Milliseconds(),
	)
	return idx
}

// 包 resolver：坐标到时区名的判定流程（索引粗筛 → 精确判定 → 经度分带兜底）
package resolver

import (
	"sync"

	"tz-api/internal/spatial"
	"tz-api/internal/tzdata"
	"tz-api/internal/tzgeo"
)

// Result 判定结果；Fallback 表示未命中任何多边形、名称来自经度分带
type Result struct {
	Name     string
	Fallback bool
}

// 文档注释：判定器
// 约束：store 与 index 构建后只读；候选缓冲从池中取，判定过程不持锁，可并发调用。
type Resolver struct {
	store *tzdata.Store
	index spatial.Index
	bufs  sync.Pool
}

func New(st *tzdata.Store, idx spatial.Index) *Resolver {
	r := &Resolver{store: st, index: idx}
	r.bufs.New = func() any {
		b := make([]int, 0, 16)
		return &b
	}
	return r
}

func (r *Resolver) Store() *tzdata.Store  { return r.store }
func (r *Resolver) Index() spatial.Index { return r.index }

// Resolve 全函数：任意输入都返回非空时区名
// 约束：候选按存储顺序判定，第一个闭合包含该点的多边形胜出。
func (r *Resolver) Resolve(lng, lat float64) Result {
	lng, lat = tzgeo.Normalize(lng, lat)
	pt := tzgeo.Point{lng, lat}
	bp := r.bufs.Get().(*[]int)
	defer r.bufs.Put(bp)
	cands := r.index.Candidates(lng, lat, (*bp)[:0])
	*bp = cands
	for _, i := range cands {
		p := r.store.Polygon(i)
		if p.Contains(pt) {
			return Result{Name: p.Name}
		}
	}
	return Result{Name: tzgeo.FallbackName(lng), Fallback: true}
}

// ResolveAll 所有包含该点的时区名，去重后按存储顺序；无命中时只返回分带兜底名
func (r *Resolver) ResolveAll(lng, lat float64) []Result {
	lng, lat = tzgeo.Normalize(lng, lat)
	pt := tzgeo.Point{lng, lat}
	var out []Result
	for _, i := range r.index.Candidates(lng, lat, nil) {
		p := r.store.Polygon(i)
		if !p.Contains(pt) || containsName(out, p.Name) {
			continue
		}
		out = append(out, Result{Name: p.Name})
	}
	if len(out) == 0 {
		out = append(out, Result{Name: tzgeo.FallbackName(lng), Fallback: true})
	}
	return out
}

func containsName(rs []Result, name string) bool {
	for _, r := range rs {
		if r.Name == name {
			return true
		}
	}
	return false
}

// 包 tzfinder：离线经纬度到 IANA 时区名的查询入口
//
// Finder 构建后只读，单个实例可被任意数量的 goroutine 并发使用。
package tzfinder

import (
	"errors"
	"sync"
	"time"

	"tz-api/internal/logger"
	"tz-api/internal/resolver"
	"tz-api/internal/spatial"
	"tz-api/internal/tzdata"
)

var (
	ErrMalformed      = tzdata.ErrMalformed
	ErrVersionMissing = tzdata.ErrVersionMissing
	ErrUnknownZone    = errors.New("tzfinder: unknown timezone")
)

// DatasetError 数据集加载失败的详细信息；可用 errors.Is 区分 ErrMalformed 与 ErrVersionMissing
type DatasetError = tzdata.DatasetError

// Result 查询结果；Fallback 为 true 表示坐标不在任何多边形内，名称按经度分带推出
type Result = resolver.Result

type Option func(*options)

type options struct {
	index spatial.Options
	data  []byte
}

// WithIndex 选择索引实现："rtree"（默认）或 "grid"
func WithIndex(kind spatial.Kind) Option {
	return func(o *options) { o.index.Kind = kind }
}

// WithGridCellSize 网格索引的格子边长（度）
func WithGridCellSize(deg float64) Option {
	return func(o *options) { o.index.CellDeg = deg }
}

// WithData 使用外部数据集替代内置数据
func WithData(b []byte) Option {
	return func(o *options) { o.data = b }
}

// 文档注释：时区查询器
// 约束：构造成功后数据集版本与全部判定结果固定不变；同一数据集构造出的两个实例对相同输入给出相同结果。
type Finder struct {
	r *resolver.Resolver
}

// New 加载数据集并构建索引；未指定 WithData 时使用内置精简数据集
func New(opts ...Option) (*Finder, error) {
	o := options{index: spatial.Options{Kind: spatial.KindRTree, CellDeg: spatial.DefaultCellDeg}}
	for _, fn := range opts {
		fn(&o)
	}
	if o.data == nil {
		o.data = tzdata.Default()
	}
	t0 := time.Now()
	st, err := tzdata.Load(o.data)
	if err != nil {
		return nil, err
	}
	idx := spatial.Build(st, o.index)
	logger.L().Info("tzfinder_ready",
		"version", st.Version(),
		"polygons", st.Len(),
		"index", idx.Kind(),
		"ms", time.Since(t0).Milliseconds(),
	)
	return &Finder{r: resolver.New(st, idx)}, nil
}

// NewFromBytes 等价于 New(WithData(b), opts...)
func NewFromBytes(b []byte, opts ...Option) (*Finder, error) {
	if b == nil {
		b = []byte{}
	}
	return New(append([]Option{WithData(b)}, opts...)...)
}

// NewFromStore 由已构建的存储直接构造，供测试与数据生成工具使用
func NewFromStore(st *tzdata.Store, opts ...Option) *Finder {
	o := options{index: spatial.Options{Kind: spatial.KindRTree, CellDeg: spatial.DefaultCellDeg}}
	for _, fn := range opts {
		fn(&o)
	}
	return &Finder{r: resolver.New(st, spatial.Build(st, o.index))}
}

var (
	defaultOnce  sync.Once
	sharedFinder *Finder
	sharedErr    error
)

// Default 进程内共享的内置数据集实例，首次调用时构建
func Default() (*Finder, error) {
	defaultOnce.Do(func() { sharedFinder, sharedErr = New() })
	return sharedFinder, sharedErr
}

// GetTimezoneName 坐标所在时区名，总是非空
func (f *Finder) GetTimezoneName(lng, lat float64) string {
	return f.r.Resolve(lng, lat).Name
}

// Lookup 与 GetTimezoneName 相同，额外给出是否为分带兜底
func (f *Finder) Lookup(lng, lat float64) Result {
	return f.r.Resolve(lng, lat)
}

// GetTimezoneNames 包含该点的全部时区名（重叠区域可能多于一个），按数据集顺序
func (f *Finder) GetTimezoneNames(lng, lat float64) []string {
	rs := f.r.ResolveAll(lng, lat)
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

// Location 解析为 *time.Location；依赖运行环境的 tzdata
func (f *Finder) Location(lng, lat float64) (*time.Location, error) {
	return time.LoadLocation(f.GetTimezoneName(lng, lat))
}

// TimezoneNames 数据集中的全部时区名
func (f *Finder) TimezoneNames() []string { return f.r.Store().Names() }

func (f *Finder) DataVersion() string { return f.r.Store().Version() }

func (f *Finder) IndexKind() spatial.Kind { return f.r.Index().Kind() }

func (f *Finder) PolygonCount() int { return f.r.Store().Len() }

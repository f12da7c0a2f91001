// 包 cache：坐标查询结果的热点缓存（进程内 TTL 缓存 → 可选 Redis）
package cache

import (
	"context"
	"strconv"

	"tz-api/internal/metrics"
)

// Entry 缓存值：时区名与是否为分带兜底
type Entry struct {
	Name     string `json:"name"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Tier 单层缓存
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, e Entry)
}

// Key 坐标缓存键；使用完整精度，不做四舍五入，边界附近的相邻坐标不会共享结果
// 约束：键包含数据集版本，换数据后旧键自然失效。
func Key(version string, lng, lat float64) string {
	b := make([]byte, 0, 48)
	b = append(b, "tz:"...)
	b = append(b, version...)
	b = append(b, ':')
	b = strconv.AppendFloat(b, lng, 'g', -1, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, lat, 'g', -1, 64)
	return string(b)
}

// 文档注释：多级缓存
// 约束：按顺序查找，命中较后层时回填前面的层；nil 层跳过。
type Chain struct {
	tiers []Tier
}

func NewChain(tiers ...Tier) *Chain {
	c := &Chain{}
	for _, t := range tiers {
		if t != nil {
			c.tiers = append(c.tiers, t)
		}
	}
	return c
}

func (c *Chain) Get(ctx context.Context, key string) (Entry, bool) {
	for i, t := range c.tiers {
		if e, ok := t.Get(ctx, key); ok {
			metrics.CacheHitsTotal.WithLabelValues(t.Name()).Inc()
			for _, up := range c.tiers[:i] {
				up.Set(ctx, key, e)
			}
			return e, true
		}
		metrics.CacheMissesTotal.WithLabelValues(t.Name()).Inc()
	}
	return Entry{}, false
}

func (c *Chain) Set(ctx context.Context, key string, e Entry) {
	for _, t := range c.tiers {
		t.Set(ctx, key, e)
	}
}

// GetOrLoad 未命中时调用 load 并写入全部层
func (c *Chain) GetOrLoad(ctx context.Context, key string, load func() Entry) (Entry, bool) {
	if e, ok := c.Get(ctx, key); ok {
		return e, true
	}
	e := load()
	c.Set(ctx, key, e)
	return e, false
}

func (c *Chain) Len() int { return len(c.tiers) }

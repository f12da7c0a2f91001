package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Local 进程内 TTL + 容量上限缓存
type Local struct {
	c *ttlcache.Cache[string, Entry]
}

func NewLocal(size int, ttl time.Duration) *Local {
	if size <= 0 {
		size = 4096
	}
	c := ttlcache.New[string, Entry](
		ttlcache.WithTTL[string, Entry](ttl),
		ttlcache.WithCapacity[string, Entry](uint64(size)),
		ttlcache.WithDisableTouchOnHit[string, Entry](),
	)
	go c.Start()
	return &Local{c: c}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Get(_ context.Context, key string) (Entry, bool) {
	it := l.c.Get(key)
	if it == nil {
		return Entry{}, false
	}
	return it.Value(), true
}

func (l *Local) Set(_ context.Context, key string, e Entry) {
	l.c.Set(key, e, ttlcache.DefaultTTL)
}

func (l *Local) Len() int { return l.c.Len() }

// Close 停止过期清理协程
func (l *Local) Close() { l.c.Stop() }

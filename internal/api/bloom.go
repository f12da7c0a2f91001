package api

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数（控制误判率与写入开销）。
// 背景：使用 FNV64a 结合索引扰动生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write(data)
		pos[i] = int64(uint32(h.Sum64() % uint64(m)))
	}
	return pos
}

// 文档注释：检查并写入布隆过滤器位图
// 背景：按天统计独立访客，位图放在 Redis 中，多实例共享。
// 返回：true 表示首次见到（已写入位图）；false 表示已存在。
// 异常：Redis 交互错误时返回 error；rc 为 nil 时返回 false，不计访客。
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return false, nil
	}
	pipe := rc.Pipeline()
	cmds := make([]*redis.IntCmd, len(positions))
	for i, p := range positions {
		cmds[i] = pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	// SETBIT 返回旧值，任一位原为 0 即为首次出现
	for _, c := range cmds {
		if c.Val() == 0 {
			return true, nil
		}
	}
	return false, nil
}

const (
	visitorBloomBits   = 1 << 24
	visitorBloomHashes = 4
)

func visitorKey(t time.Time) string { return "tz:visitors:" + t.UTC().Format("20060102") }

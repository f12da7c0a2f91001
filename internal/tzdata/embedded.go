package tzdata

import (
	tzfrellite "github.com/ringsaturn/tzf-rel-lite"
)

// Default 随二进制发布的数据集（timezone-boundary-builder 含海洋时区的精简版）
func Default() []byte { return tzfrellite.LiteData }

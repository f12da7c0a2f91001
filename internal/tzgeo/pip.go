package tzgeo

// 文档注释：点入多边形判定（Even-Odd，闭合）
// 约束：外环命中（含边界）且不严格落在任何洞内视为命中；洞的边界同时是多边形的边界，按命中处理。
// 相邻时区共享边上的点会同时命中两侧，由调用方按存储顺序取第一个。
func Covers[R Locator](outer R, holes []R, pt Point) bool {
	switch outer.Locate(pt) {
	case Outside:
		return false
	case OnBoundary:
		return true
	}
	for _, h := range holes {
		if h.Locate(pt) == Inside {
			return false
		}
	}
	return true
}

// Locate 射线法判定点与环的位置关系，先做包围盒过滤
func (r Ring) Locate(pt Point) Position {
	n := len(r.pts)
	if n == 0 || !r.bound.Contains(pt) {
		return Outside
	}
	x, y := pt[0], pt[1]
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r.pts[j], r.pts[i]
		if onSegment(a, b, pt) {
			return OnBoundary
		}
		// 半开区间规则：顶点恰在射线上时只计一次
		if (a[1] > y) != (b[1] > y) {
			xi := a[0] + (y-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if x < xi {
				inside = !inside
			}
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

// onSegment 点是否精确落在线段 ab 上（叉积为零且在线段包围盒内）
func onSegment(a, b, p Point) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if cross != 0 {
		return false
	}
	return min(a[0], b[0]) <= p[0] && p[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= p[1] && p[1] <= max(a[1], b[1])
}

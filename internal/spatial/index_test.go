package spatial

import (
	"math/rand"
	"slices"
	"testing"

	"tz-api/internal/tzdata"
	"tz-api/internal/tzgeo"

	"github.com/paulmach/orb"
)

func square(x0, y0, x1, y1 float64) []tzgeo.Point {
	return []tzgeo.Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// randomStore 随机三角形与矩形（部分带洞），包围盒互相重叠
func randomStore(t *testing.T, seed int64, n int) *tzdata.Store {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var zones []tzdata.Zone
	for i := 0; i < n; i++ {
		x := rng.Float64()*340 - 170
		y := rng.Float64()*160 - 80
		w := rng.Float64()*9 + 0.5
		h := rng.Float64()*9 + 0.5
		var p tzdata.RawPolygon
		if i%2 == 0 {
			p.Points = []tzgeo.Point{{x, y}, {min(x+w, 180), y}, {x, min(y+h, 90)}}
		} else {
			p.Points = square(x, y, min(x+w, 180), min(y+h, 90))
			p.Holes = [][]tzgeo.Point{square(x+w/4, y+h/4, x+w/2, y+h/2)}
		}
		zones = append(zones, tzdata.Zone{Name: "Zone/" + string(rune('A'+i%26)), Polygons: []tzdata.RawPolygon{p}})
	}
	st, err := tzdata.NewStore("test", zones)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

func kinds() []Options {
	return []Options{
		{Kind: KindRTree},
		{Kind: KindGrid, CellDeg: 1},
		{Kind: KindGrid, CellDeg: 7.3},
		{Kind: KindGrid, CellDeg: 360},
	}
}

func TestIndexSoundness(t *testing.T) {
	st := randomStore(t, 1, 400)
	rng := rand.New(rand.NewSource(2))
	for _, o := range kinds() {
		idx := Build(st, o)
		for i, p := range st.Polygons() {
			b := p.BBox()
			// 每个多边形取若干包围盒内的点，真正落在多边形内的必须出现在候选中
			for k := 0; k < 20; k++ {
				pt := tzgeo.Point{
					b.Min[0] + rng.Float64()*(b.Max[0]-b.Min[0]),
					b.Min[1] + rng.Float64()*(b.Max[1]-b.Min[1]),
				}
				if !p.Contains(pt) {
					continue
				}
				if !slices.Contains(idx.Candidates(pt[0], pt[1], nil), i) {
					t.Fatalf("%s/%v: polygon %d missing for %v", o.Kind, o.CellDeg, i, pt)
				}
			}
			// 顶点在边界上，同样必须命中
			v := p.Outer.Points()[0]
			if !slices.Contains(idx.Candidates(v[0], v[1], nil), i) {
				t.Fatalf("%s/%v: polygon %d missing for vertex %v", o.Kind, o.CellDeg, i, v)
			}
		}
	}
}

func TestIndexKindsAgree(t *testing.T) {
	st := randomStore(t, 3, 300)
	var idxs []Index
	for _, o := range kinds() {
		idxs = append(idxs, Build(st, o))
	}
	rng := rand.New(rand.NewSource(4))
	for k := 0; k < 5000; k++ {
		lng := rng.Float64()*360 - 180
		lat := rng.Float64()*180 - 90
		want := idxs[0].Candidates(lng, lat, nil)
		if !slices.IsSorted(want) {
			t.Fatalf("rtree candidates not sorted: %v", want)
		}
		for _, idx := range idxs[1:] {
			if got := idx.Candidates(lng, lat, nil); !slices.Equal(got, want) {
				t.Fatalf("(%v,%v): %s = %v, rtree = %v", lng, lat, idx.Kind(), got, want)
			}
		}
	}
}

func TestCandidatesAppendsToDst(t *testing.T) {
	st, err := tzdata.NewStore("v", []tzdata.Zone{
		{Name: "A", Polygons: []tzdata.RawPolygon{{Points: square(0, 0, 10, 10)}}},
		{Name: "B", Polygons: []tzdata.RawPolygon{{Points: square(5, 5, 15, 15)}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range kinds() {
		idx := Build(st, o)
		got := idx.Candidates(7, 7, []int{99})
		if !slices.Equal(got, []int{99, 0, 1}) {
			t.Errorf("%s: Candidates = %v", o.Kind, got)
		}
		if got := idx.Candidates(12, 12, nil); !slices.Equal(got, []int{1}) {
			t.Errorf("%s: Candidates(12,12) = %v", o.Kind, got)
		}
		if got := idx.Candidates(-50, 0, nil); len(got) != 0 {
			t.Errorf("%s: Candidates(-50,0) = %v", o.Kind, got)
		}
		if idx.Len() != 2 {
			t.Errorf("%s: Len = %d", o.Kind, idx.Len())
		}
	}
}

func TestGridCellBoundary(t *testing.T) {
	// 包围盒右边界恰好落在格线上
	bounds := []orb.Bound{{Min: orb.Point{-3, -3}, Max: orb.Point{2, 2}}}
	g := newGrid(bounds, 1)
	for _, pt := range []orb.Point{{2, 2}, {2, -3}, {-3, 0}, {0, 0}} {
		if got := g.Candidates(pt[0], pt[1], nil); !slices.Equal(got, []int{0}) {
			t.Errorf("Candidates(%v) = %v", pt, got)
		}
	}
	if got := len(g.Cells(0)); got != 6*6 {
		t.Fatalf("Cells = %d, want 36", got)
	}
}

func TestGridDegenerates(t *testing.T) {
	bounds := []orb.Bound{
		{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}},
		{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}},
	}
	g := newGrid(bounds, 1000)
	if g.CellCount() != 1 {
		t.Fatalf("cells = %d, want 1", g.CellCount())
	}
	if got := g.Candidates(0, 0, nil); !slices.Equal(got, []int{0, 1}) {
		t.Fatalf("Candidates = %v", got)
	}
	if got := g.Candidates(180, 90, nil); !slices.Equal(got, []int{0}) {
		t.Fatalf("Candidates corner = %v", got)
	}
	cells := g.Cells(1)
	if len(cells) != 1 || cells[0].Max != (orb.Point{180, 90}) {
		t.Fatalf("Cells = %v", cells)
	}
}

func TestGridOutOfRangeInput(t *testing.T) {
	g := newGrid([]orb.Bound{{Min: orb.Point{170, 80}, Max: orb.Point{180, 90}}}, 1)
	// 越界坐标不应 panic
	_ = g.Candidates(500, 500, nil)
	_ = g.Candidates(-500, -500, nil)
}

func TestCellKey(t *testing.T) {
	cases := [][2]int{{0, 0}, {359, 179}, {1<<16 - 1, 1<<16 - 1}, {12, 3}}
	for _, c := range cases {
		k := newCellKey(c[0], c[1])
		if k.col() != c[0] || k.row() != c[1] {
			t.Errorf("key(%d,%d) = col %d row %d", c[0], c[1], k.col(), k.row())
		}
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindRTree, "rtree": KindRTree, "GRID": KindGrid} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("quadtree"); err == nil {
		t.Fatal("ParseKind(quadtree) succeeded")
	}
}

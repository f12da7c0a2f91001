package resolver

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"tz-api/internal/spatial"
	"tz-api/internal/tzdata"
	"tz-api/internal/tzgeo"
)

func square(x0, y0, x1, y1 float64) []tzgeo.Point {
	return []tzgeo.Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// 西区与东区在 x=0 处共边；西区带洞，洞内另有一个小岛时区；Overlap 与东区重叠但排在后面
func testZones() []tzdata.Zone {
	return []tzdata.Zone{
		{Name: "Test/West", Polygons: []tzdata.RawPolygon{
			{Points: square(-10, -10, 0, 10), Holes: [][]tzgeo.Point{square(-6, -6, -4, -4)}},
		}},
		{Name: "Test/Island", Polygons: []tzdata.RawPolygon{
			{Points: square(-5.5, -5.5, -4.5, -4.5)},
		}},
		{Name: "Test/East", Polygons: []tzdata.RawPolygon{
			{Points: square(0, -10, 10, 10)},
		}},
		{Name: "Test/Overlap", Polygons: []tzdata.RawPolygon{
			{Points: square(5, 5, 20, 20)},
		}},
	}
}

func newResolvers(t *testing.T) []*Resolver {
	t.Helper()
	st, err := tzdata.NewStore("test", testZones())
	if err != nil {
		t.Fatal(err)
	}
	return []*Resolver{
		New(st, spatial.Build(st, spatial.Options{Kind: spatial.KindRTree})),
		New(st, spatial.Build(st, spatial.Options{Kind: spatial.KindGrid, CellDeg: 2})),
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		lng, lat float64
		want     string
		fallback bool
	}{
		{"west interior", -8, 0, "Test/West", false},
		{"east interior", 3, 0, "Test/East", false},
		{"shared edge goes to earlier polygon", 0, 0, "Test/West", false},
		{"shared corner", 0, 10, "Test/West", false},
		{"outer vertex", -10, -10, "Test/West", false},
		{"hole interior", -5.9, -5.9, "Etc/GMT", true},
		{"hole boundary counts as polygon", -6, -5, "Test/West", false},
		{"island inside hole", -5, -5, "Test/Island", false},
		{"overlap earlier wins", 7, 7, "Test/East", false},
		{"overlap only", 15, 15, "Test/Overlap", false},
		{"open sea east", 100, 0, "Etc/GMT-7", true},
		{"open sea west", -122.4, 0, "Etc/GMT+8", true},
		{"antimeridian east", 180, 0, "Etc/GMT-12", true},
		{"antimeridian west", -180, 0, "Etc/GMT+12", true},
		{"wrapped longitude", 363, 0, "Test/East", false},
		{"nan", math.NaN(), math.NaN(), "Test/West", false},
		{"latitude clamped", 3, 1000, "Etc/GMT", true},
	}
	for _, r := range newResolvers(t) {
		for _, tt := range tests {
			got := r.Resolve(tt.lng, tt.lat)
			if got.Name != tt.want || got.Fallback != tt.fallback {
				t.Errorf("%s/%s: Resolve(%v,%v) = %+v, want %s fallback=%v",
					r.Index().Kind(), tt.name, tt.lng, tt.lat, got, tt.want, tt.fallback)
			}
		}
	}
}

func TestResolveMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, r := range newResolvers(t) {
		polys := r.Store().Polygons()
		for k := 0; k < 20000; k++ {
			lng := rng.Float64()*50 - 25
			lat := rng.Float64()*50 - 25
			// 落到整数格点上，增加命中边界与顶点的概率
			if k%4 == 0 {
				lng, lat = math.Round(lng), math.Round(lat)
			}
			want := tzgeo.FallbackName(lng)
			for _, p := range polys {
				if p.Contains(tzgeo.Point{lng, lat}) {
					want = p.Name
					break
				}
			}
			if got := r.Resolve(lng, lat); got.Name != want {
				t.Fatalf("%s: Resolve(%v,%v) = %s, linear scan = %s", r.Index().Kind(), lng, lat, got.Name, want)
			}
		}
	}
}

func TestResolveAll(t *testing.T) {
	for _, r := range newResolvers(t) {
		got := r.ResolveAll(7, 7)
		if len(got) != 2 || got[0].Name != "Test/East" || got[1].Name != "Test/Overlap" {
			t.Errorf("%s: ResolveAll(7,7) = %+v", r.Index().Kind(), got)
		}
		got = r.ResolveAll(0, 0)
		if len(got) != 2 || got[0].Name != "Test/West" || got[1].Name != "Test/East" {
			t.Errorf("%s: ResolveAll(0,0) = %+v", r.Index().Kind(), got)
		}
		got = r.ResolveAll(-40, 50)
		if !slices.Equal(got, []Result{{Name: "Etc/GMT+3", Fallback: true}}) {
			t.Errorf("%s: ResolveAll(-40,50) = %+v", r.Index().Kind(), got)
		}
	}
}

func TestResolveAllDedupesZone(t *testing.T) {
	st, err := tzdata.NewStore("v", []tzdata.Zone{
		{Name: "A", Polygons: []tzdata.RawPolygon{{Points: square(0, 0, 2, 2)}, {Points: square(1, 1, 3, 3)}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := New(st, spatial.Build(st, spatial.Options{}))
	if got := r.ResolveAll(1.5, 1.5); len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("ResolveAll = %+v", got)
	}
}

func TestResolveEmptyStore(t *testing.T) {
	st, err := tzdata.NewStore("v", nil)
	if err != nil {
		t.Fatal(err)
	}
	r := New(st, spatial.Build(st, spatial.Options{Kind: spatial.KindGrid}))
	for lng := -180.0; lng <= 180; lng += 7.5 {
		got := r.Resolve(lng, 0)
		if !got.Fallback || got.Name != tzgeo.FallbackName(lng) {
			t.Fatalf("Resolve(%v,0) = %+v", lng, got)
		}
	}
}

package tzfinder

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"testing"

	"tz-api/internal/spatial"
	"tz-api/internal/tzdata"
	"tz-api/internal/tzgeo"

	"github.com/ringsaturn/tzf"
)

func mustDefault(t *testing.T) *Finder {
	t.Helper()
	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return f
}

func TestCities(t *testing.T) {
	f := mustDefault(t)
	tests := []struct {
		name     string
		lng, lat float64
		want     string
	}{
		{"beijing", 116.4, 39.9, "Asia/Shanghai"},
		{"san francisco", -122.4, 37.8, "America/Los_Angeles"},
		{"london", 0.0, 51.5, "Europe/London"},
		{"tokyo", 139.69, 35.69, "Asia/Tokyo"},
		{"paris", 2.35, 48.86, "Europe/Paris"},
		{"denver", -104.99, 39.74, "America/Denver"},
		{"canberra", 149.13, -35.28, "Australia/Sydney"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.GetTimezoneName(tt.lng, tt.lat); got != tt.want {
				t.Fatalf("GetTimezoneName(%v,%v) = %q, want %q", tt.lng, tt.lat, got, tt.want)
			}
			if r := f.Lookup(tt.lng, tt.lat); r.Fallback {
				t.Fatalf("Lookup(%v,%v) reported fallback", tt.lng, tt.lat)
			}
		})
	}
}

// 同一份精简数据集，内陆城市的结果应与 tzf 一致
func TestAgreesWithTzf(t *testing.T) {
	ref, err := tzf.NewDefaultFinder()
	if err != nil {
		t.Skipf("tzf default finder unavailable: %v", err)
	}
	f := mustDefault(t)
	points := [][2]float64{
		{116.4, 39.9}, {-122.4, 37.8}, {0.0, 51.5}, {37.62, 55.75}, {31.24, 30.04},
		{-46.63, -23.55}, {77.21, 28.61}, {-99.13, 19.43}, {13.40, 52.52}, {-87.63, 41.88},
	}
	for _, p := range points {
		if got, want := f.GetTimezoneName(p[0], p[1]), ref.GetTimezoneName(p[0], p[1]); got != want {
			t.Errorf("(%v,%v): got %q, tzf %q", p[0], p[1], got, want)
		}
	}
}

func TestTotality(t *testing.T) {
	f := mustDefault(t)
	for lng := -180.0; lng <= 180; lng += 3.7 {
		for lat := -90.0; lat <= 90; lat += 3.1 {
			if f.GetTimezoneName(lng, lat) == "" {
				t.Fatalf("empty name at (%v,%v)", lng, lat)
			}
		}
	}
	for _, p := range [][2]float64{{math.NaN(), 0}, {math.Inf(1), math.Inf(-1)}, {720, 45}, {-1e9, -1e9}} {
		if f.GetTimezoneName(p[0], p[1]) == "" {
			t.Fatalf("empty name at (%v,%v)", p[0], p[1])
		}
	}
}

func TestIndexKindsAgreeOnDefaultData(t *testing.T) {
	rt := mustDefault(t)
	grid, err := New(WithIndex(spatial.KindGrid), WithGridCellSize(2))
	if err != nil {
		t.Fatal(err)
	}
	if grid.IndexKind() != spatial.KindGrid {
		t.Fatalf("index kind = %s", grid.IndexKind())
	}
	rng := rand.New(rand.NewSource(11))
	for k := 0; k < 3000; k++ {
		lng := rng.Float64()*360 - 180
		lat := rng.Float64()*180 - 90
		if a, b := rt.GetTimezoneName(lng, lat), grid.GetTimezoneName(lng, lat); a != b {
			t.Fatalf("(%v,%v): rtree %q, grid %q", lng, lat, a, b)
		}
	}
}

func TestDefaultIsShared(t *testing.T) {
	a, b := mustDefault(t), mustDefault(t)
	if a != b {
		t.Fatal("Default built two instances")
	}
	if a.PolygonCount() == 0 || a.IndexKind() != spatial.KindRTree {
		t.Fatalf("default finder: polygons=%d index=%s", a.PolygonCount(), a.IndexKind())
	}
}

func TestVersionStable(t *testing.T) {
	a := mustDefault(t)
	b, err := NewFromBytes(tzdata.Default())
	if err != nil {
		t.Fatal(err)
	}
	if a.DataVersion() == "" || a.DataVersion() != b.DataVersion() {
		t.Fatalf("versions %q vs %q", a.DataVersion(), b.DataVersion())
	}
	for _, p := range [][2]float64{{116.4, 39.9}, {-30, 0}, {10, 10}} {
		if a.GetTimezoneName(p[0], p[1]) != b.GetTimezoneName(p[0], p[1]) {
			t.Fatalf("instances disagree at %v", p)
		}
	}
}

func TestConstructErrors(t *testing.T) {
	if _, err := NewFromBytes(nil); !errors.Is(err, ErrVersionMissing) {
		t.Fatalf("nil data: err = %v", err)
	}
	_, err := NewFromBytes([]byte{0x0a, 0x05, 0x01})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("garbage: err = %v", err)
	}
	var de *DatasetError
	if !errors.As(err, &de) {
		t.Fatalf("err %T is not *DatasetError", err)
	}
}

func square(x0, y0, x1, y1 float64) []tzgeo.Point {
	return []tzgeo.Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func syntheticFinder(t *testing.T, opts ...Option) *Finder {
	t.Helper()
	data := tzdata.Encode("synthetic-1", []tzdata.Zone{
		{Name: "Test/A", Polygons: []tzdata.RawPolygon{{Points: square(0, 0, 10, 10)}}},
		{Name: "Test/B", Polygons: []tzdata.RawPolygon{{Points: square(10, 0, 20, 10)}}},
	})
	f, err := NewFromBytes(data, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBoundaryAndFallback(t *testing.T) {
	for _, kind := range []spatial.Kind{spatial.KindRTree, spatial.KindGrid} {
		f := syntheticFinder(t, WithIndex(kind))
		if f.DataVersion() != "synthetic-1" {
			t.Fatalf("version = %q", f.DataVersion())
		}
		// 共边上的点归入存储顺序靠前的多边形
		for _, lat := range []float64{0, 5, 10} {
			if got := f.GetTimezoneName(10, lat); got != "Test/A" {
				t.Errorf("%s: shared edge (10,%v) = %q", kind, lat, got)
			}
		}
		if got := f.GetTimezoneName(20, 10); got != "Test/B" {
			t.Errorf("%s: corner = %q", kind, got)
		}
		if got := f.GetTimezoneNames(10, 5); !slices.Equal(got, []string{"Test/A", "Test/B"}) {
			t.Errorf("%s: GetTimezoneNames = %v", kind, got)
		}
		for _, tt := range []struct {
			lng  float64
			want string
		}{
			{-100, "Etc/GMT+7"}, {-7.5, "Etc/GMT"}, {7.4, "Etc/GMT"}, {50, "Etc/GMT-3"}, {175, "Etc/GMT-12"},
		} {
			r := f.Lookup(tt.lng, -40)
			if r.Name != tt.want || !r.Fallback {
				t.Errorf("%s: Lookup(%v,-40) = %+v, want %s", kind, tt.lng, r, tt.want)
			}
		}
	}
}

func TestGeoJSON(t *testing.T) {
	f := syntheticFinder(t, WithIndex(spatial.KindGrid), WithGridCellSize(5))
	feat, err := f.PolygonGeoJSON("Test/A")
	if err != nil {
		t.Fatal(err)
	}
	if feat.Properties["tzid"] != "Test/A" {
		t.Fatalf("properties = %v", feat.Properties)
	}
	b, err := feat.MarshalJSON()
	if err != nil || !strings.Contains(string(b), "MultiPolygon") {
		t.Fatalf("marshal = %s, %v", b, err)
	}
	fc, err := f.IndexGeoJSON("Test/B")
	if err != nil {
		t.Fatal(err)
	}
	// 10..20 x 0..10，5° 格子，右上边界落在格线上
	if len(fc.Features) != 9 {
		t.Fatalf("index cells = %d, want 9", len(fc.Features))
	}
	if _, err := f.PolygonGeoJSON("Nowhere/Nope"); !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("err = %v", err)
	}
	if _, err := f.IndexGeoJSON("Nowhere/Nope"); !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("err = %v", err)
	}
}

func TestLocation(t *testing.T) {
	f := mustDefault(t)
	loc, err := f.Location(116.4, 39.9)
	if err != nil {
		t.Skipf("system tzdata unavailable: %v", err)
	}
	if loc.String() != "Asia/Shanghai" {
		t.Fatalf("location = %s", loc)
	}
}

func TestConcurrentUse(t *testing.T) {
	f := mustDefault(t)
	want := f.GetTimezoneName(116.4, 39.9)
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for k := 0; k < 500; k++ {
				if f.GetTimezoneName(rng.Float64()*360-180, rng.Float64()*180-90) == "" {
					errs <- "empty"
					return
				}
				if got := f.GetTimezoneName(116.4, 39.9); got != want {
					errs <- got
					return
				}
			}
		}(int64(g))
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent lookup returned %q", e)
	}
}

func TestTimezoneNames(t *testing.T) {
	names := mustDefault(t).TimezoneNames()
	if len(names) < 200 {
		t.Fatalf("only %d names", len(names))
	}
	if !slices.Contains(names, "Europe/London") {
		t.Fatal("Europe/London missing")
	}
}

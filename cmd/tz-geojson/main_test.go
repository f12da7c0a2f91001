package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tz-api/internal/tzdata"
	"tz-api/internal/tzgeo"
	"tz-api/pkg/tzfinder"
)

func TestSafeName(t *testing.T) {
	if got := safeName("America/Argentina/Buenos_Aires"); got != "America-Argentina-Buenos_Aires" {
		t.Fatalf("safeName = %q", got)
	}
}

func TestExport(t *testing.T) {
	data := tzdata.Encode("v1", []tzdata.Zone{
		{Name: "Test/Zone", Polygons: []tzdata.RawPolygon{{Points: []tzgeo.Point{{0, 0}, {1, 0}, {1, 1}}}}},
	})
	path := filepath.Join(t.TempDir(), "ds.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := open(path)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	*outputDir = dir
	*withIndex = true
	*mvtDir = ""
	if err := export(context.Background(), f, "Test/Zone"); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "Test-Zone.geojson"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"tzid":"Test/Zone"`) {
		t.Fatalf("geojson = %s", b)
	}
	if _, err := os.Stat(filepath.Join(dir, "Test-Zone.index.geojson")); err != nil {
		t.Fatal(err)
	}
	if err := export(context.Background(), f, "Nope/Zone"); err == nil {
		t.Fatal("export of unknown zone succeeded")
	}
	if _, err := tzfinder.NewFromBytes(data[:len(data)-1]); err == nil {
		t.Fatal("truncated dataset accepted")
	}
}

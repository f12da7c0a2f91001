// tz-geojson：把数据集中的每个时区导出为一个 GeoJSON 文件，可选再用 tippecanoe 切成矢量瓦片
package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"tz-api/internal/logger"
	"tz-api/pkg/tzfinder"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

var (
	outputDir = flag.String("output", "output", "GeoJSON output directory")
	mvtDir    = flag.String("mvt", "", "vector tile output directory; empty disables tippecanoe")
	dataset   = flag.String("dataset", "", "dataset file; empty uses the embedded dataset")
	maxZoom   = flag.Int("max-zoom", 5, "tippecanoe maximum zoom")
	workers   = flag.Int("workers", runtime.NumCPU(), "concurrent exports")
	withIndex = flag.Bool("index", false, "also write <zone>.index.geojson with the index cells")
)

func main() {
	flag.Parse()
	l := logger.Setup()
	f, err := open(*dataset)
	if err != nil {
		l.Error("dataset_error", "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		l.Error("mkdir_error", "dir", *outputDir, "err", err)
		os.Exit(1)
	}
	t0 := time.Now()
	var written atomic.Int64
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(1, *workers))
	for _, name := range f.TimezoneNames() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := export(ctx, f, name); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.Error("export_error", "err", err)
		os.Exit(1)
	}
	l.Info("export_done", "version", f.DataVersion(), "zones", written.Load(), "dir", *outputDir, "ms", time.Since(t0).Milliseconds())
}

func open(path string) (*tzfinder.Finder, error) {
	if path == "" {
		return tzfinder.New()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tzfinder.NewFromBytes(b)
}

// safeName "America/Argentina/Buenos_Aires" → "America-Argentina-Buenos_Aires"
func safeName(tz string) string { return strings.ReplaceAll(tz, "/", "-") }

func export(ctx context.Context, f *tzfinder.Finder, name string) error {
	feat, err := f.PolygonGeoJSON(name)
	if err != nil {
		return err
	}
	b, err := json.Marshal(feat)
	if err != nil {
		return err
	}
	file := filepath.Join(*outputDir, safeName(name)+".geojson")
	if err := os.WriteFile(file, b, 0o644); err != nil {
		return err
	}
	if *withIndex {
		fc, err := f.IndexGeoJSON(name)
		if err != nil {
			return err
		}
		ib, err := json.Marshal(fc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(*outputDir, safeName(name)+".index.geojson"), ib, 0o644); err != nil {
			return err
		}
	}
	if *mvtDir == "" {
		return nil
	}
	dir := filepath.Join(*mvtDir, safeName(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "tippecanoe", "--force", "--output-to-directory", dir,
		"--minimum-zoom=0", "--maximum-zoom="+strconv.Itoa(*maxZoom), file)
	if out, err := cmd.CombinedOutput(); err != nil {
		logger.L().Error("tippecanoe_error", "zone", name, "out", string(out))
		return err
	}
	return nil
}

// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"tz-api/internal/api"
	"tz-api/internal/cache"
	"tz-api/internal/config"
	"tz-api/internal/geoip"
	"tz-api/internal/logger"
	"tz-api/internal/metrics"
	"tz-api/internal/middleware"
	"tz-api/internal/spatial"
	"tz-api/internal/utils"
	"tz-api/internal/version"
	"tz-api/pkg/tzfinder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("config_error", "err", err)
		os.Exit(1)
	}
	l := logger.SetupWith(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	l.Debug("log_init_ok", "commit", version.Commit)

	var wg sync.WaitGroup
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	wg.Add(1)
	go func() {
		defer wg.Done()
		watchForShutdown(ctx, cancelFn)
	}()

	finder, err := openFinder(cfg)
	if err != nil {
		l.Error("dataset_error", "path", cfg.Dataset.Path, "err", err)
		os.Exit(1)
	}
	metrics.DatasetInfo.WithLabelValues(finder.DataVersion(), string(finder.IndexKind())).Set(float64(finder.PolygonCount()))

	rc := utils.OpenRedisFromConfig(ctx, cfg)
	st := utils.OpenStatsStore(ctx, cfg)
	defer st.Close()
	if err := st.RecordDataset(ctx, finder.DataVersion(), finder.PolygonCount(), string(finder.IndexKind())); err != nil {
		l.Error("dataset_record_error", "err", err)
	}
	gr := geoip.OpenOptional(cfg.GeoIP.Path)
	defer gr.Close()

	local := cache.NewLocal(cfg.Cache.Size, time.Duration(cfg.Cache.TTLS)*time.Second)
	defer local.Close()
	svc := &api.Service{
		Finder: finder,
		Cache:  cache.NewChain(local, cache.NewRedis(rc, time.Duration(cfg.Redis.TTLS)*time.Second)),
		Stats:  st,
		GeoIP:  gr,
		Redis:  rc,
	}

	base := cfg.API.Base
	mux := http.NewServeMux()
	mux.Handle(base+"/", http.StripPrefix(base, api.BuildRoutes(svc)))
	mux.Handle(base+"/metrics", metrics.Handler())
	// NOTE: 向前端暴露 API 基础路径与数据版本，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + base + "'\n"))
		_, _ = w.Write([]byte("window.__DATA_VERSION__='" + finder.DataVersion() + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'\n"))
	})
	// api.base 为空时 API 占用根路径，不挂载前端
	if fi, err := os.Stat(cfg.UI.Dir); base != "" && err == nil && fi.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(cfg.UI.Dir)))
		l.Debug("config_ui_dir", "dir", cfg.UI.Dir)
	}

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, cfg)
	srv := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	wg.Add(1)
	go func() {
		defer cancelFn()
		defer wg.Done()
		var err error
		if cfg.TLS.Enabled {
			if err := utils.EnsureSelfSignedCert(cfg.TLS.CertPath, cfg.TLS.KeyPath, cfg.TLS.CN); err != nil {
				l.Error("tls_cert_error", "err", err)
				return
			}
			l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLS.CertPath, "base", base)
			err = srv.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath)
		} else {
			l.Info("listening", "addr", cfg.Addr, "base", base)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("listen_error", "err", err)
		}
	}()

	<-ctx.Done()
	l.Info("shutdown_begin")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Warn("shutdown_timeout")
		} else {
			l.Error("shutdown_error", "err", err)
		}
	}
	wg.Wait()
	if rc != nil {
		_ = rc.Close()
	}
	l.Info("shutdown_done")
}

// openFinder 加载数据集：dataset.path 为空时使用内置数据
func openFinder(cfg config.Config) (*tzfinder.Finder, error) {
	kind, err := spatial.ParseKind(cfg.Index.Kind)
	if err != nil {
		return nil, err
	}
	opts := []tzfinder.Option{tzfinder.WithIndex(kind), tzfinder.WithGridCellSize(cfg.Index.CellDeg)}
	if p := strings.TrimSpace(cfg.Dataset.Path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		return tzfinder.NewFromBytes(b, opts...)
	}
	return tzfinder.New(opts...)
}

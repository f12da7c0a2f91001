// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tz-api/internal/coordsys"
	"tz-api/internal/geoip"
	"tz-api/internal/metrics"
	"tz-api/internal/middleware"
	"tz-api/internal/zoneinfo"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument 按端点记录请求数与耗时
func instrument(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		metrics.RequestsTotal.WithLabelValues(name, strconv.Itoa(rec.code)).Inc()
		metrics.RequestDurationMs.WithLabelValues(name).Observe(float64(time.Since(t0).Microseconds()) / 1000)
	}
}

// coordParams 读取 lng（或 lon）与 lat；非有限值视为参数错误
func coordParams(r *http.Request) (float64, float64, coordsys.System, error) {
	q := r.URL.Query()
	ls := q.Get("lng")
	if ls == "" {
		ls = q.Get("lon")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(ls), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return 0, 0, "", errors.New("invalid lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return 0, 0, "", errors.New("invalid lat")
	}
	sys, err := coordsys.Parse(q.Get("coord"))
	if err != nil {
		return 0, 0, "", err
	}
	return lng, lat, sys, nil
}

func flag(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

type lookupResponse struct {
	Lookup
	Details *zoneinfo.Details `json:"details,omitempty"`
}

type allResponse struct {
	Lng       float64  `json:"lng"`
	Lat       float64  `json:"lat"`
	Timezones []string `json:"timezones"`
	Version   string   `json:"version"`
}

type ipResponse struct {
	geoip.Location
	Source   string            `json:"source"`
	Timezone string            `json:"timezone"`
	Fallback bool              `json:"fallback"`
	Version  string            `json:"version"`
	Details  *zoneinfo.Details `json:"details,omitempty"`
}

func (s *Service) details(r *http.Request, name string, lng float64) *zoneinfo.Details {
	if !flag(r, "details") {
		return nil
	}
	d, err := zoneinfo.Describe(name, lng, time.Now())
	if err != nil {
		return nil
	}
	return &d
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 api.base 前缀
func BuildRoutes(s *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tz", instrument("tz", func(w http.ResponseWriter, r *http.Request) {
		lng, lat, sys, err := coordParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.CountVisitor(r.Context(), middleware.ClientIP(r))
		res := s.Resolve(r.Context(), lng, lat, sys)
		writeJSON(w, http.StatusOK, lookupResponse{Lookup: res, Details: s.details(r, res.Timezone, res.Lng)})
	}))

	mux.HandleFunc("GET /tz/all", instrument("tz_all", func(w http.ResponseWriter, r *http.Request) {
		lng, lat, sys, err := coordParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p := coordsys.ToWGS84(sys, orb.Point{lng, lat})
		names := s.Finder.GetTimezoneNames(p[0], p[1])
		if flag(r, "unique") {
			names = zoneinfo.UniqueByOffset(names, time.Now())
		}
		writeJSON(w, http.StatusOK, allResponse{Lng: p[0], Lat: p[1], Timezones: names, Version: s.Finder.DataVersion()})
	}))

	mux.HandleFunc("GET /tz/me", instrument("tz_me", func(w http.ResponseWriter, r *http.Request) {
		g := middleware.GeoFrom(r)
		if g.HasCoord {
			res := s.Resolve(r.Context(), g.Lng, g.Lat, coordsys.WGS84)
			loc := geoip.Location{IP: g.IP, Lng: g.Lng, Lat: g.Lat, Country: g.Country, City: g.City}
			writeJSON(w, http.StatusOK, s.ipResponse(r, loc, g.Source, res))
			return
		}
		s.lookupIP(w, r, g.IP)
	}))

	mux.HandleFunc("GET /ip", instrument("ip", func(w http.ResponseWriter, r *http.Request) {
		ip := r.URL.Query().Get("ip")
		if ip == "" {
			ip = middleware.ClientIP(r)
		}
		s.lookupIP(w, r, ip)
	}))

	mux.HandleFunc("GET /version", instrument("version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"version":  s.Finder.DataVersion(),
			"index":    s.Finder.IndexKind(),
			"polygons": s.Finder.PolygonCount(),
		})
	}))

	mux.HandleFunc("GET /zones", instrument("zones", func(w http.ResponseWriter, r *http.Request) {
		names := s.Finder.TimezoneNames()
		writeJSON(w, http.StatusOK, map[string]any{"version": s.Finder.DataVersion(), "count": len(names), "zones": names})
	}))

	mux.HandleFunc("GET /tz/geojson", instrument("tz_geojson", func(w http.ResponseWriter, r *http.Request) {
		feat, err := s.Finder.PolygonGeoJSON(r.URL.Query().Get("name"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		w.Header().Set("content-type", "application/geo+json")
		w.Header().Set("cache-control", "public, max-age=86400")
		_ = json.NewEncoder(w).Encode(feat)
	}))

	mux.HandleFunc("GET /tz/index-geojson", instrument("tz_index_geojson", func(w http.ResponseWriter, r *http.Request) {
		fc, err := s.Finder.IndexGeoJSON(r.URL.Query().Get("name"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		w.Header().Set("content-type", "application/geo+json")
		w.Header().Set("cache-control", "public, max-age=86400")
		_ = json.NewEncoder(w).Encode(fc)
	}))

	mux.HandleFunc("GET /stats", instrument("stats", func(w http.ResponseWriter, r *http.Request) {
		if s.Stats == nil {
			writeError(w, http.StatusServiceUnavailable, "stats disabled")
			return
		}
		t, err := s.Stats.GetTotals(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		top, _ := s.Stats.TopZones(r.Context(), 10)
		writeJSON(w, http.StatusOK, map[string]any{"totals": t, "top_zones": top})
	}))

	return mux
}

// lookupIP IP → 坐标 → 时区；GeoIP 未加载返回 503
func (s *Service) lookupIP(w http.ResponseWriter, r *http.Request, ip string) {
	loc, err := s.GeoIP.Lookup(ip)
	switch {
	case errors.Is(err, geoip.ErrDisabled):
		metrics.IPLookupsTotal.WithLabelValues("disabled").Inc()
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, geoip.ErrBadIP):
		metrics.IPLookupsTotal.WithLabelValues("bad_ip").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		metrics.IPLookupsTotal.WithLabelValues("miss").Inc()
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	metrics.IPLookupsTotal.WithLabelValues("hit").Inc()
	res := s.Resolve(r.Context(), loc.Lng, loc.Lat, coordsys.WGS84)
	writeJSON(w, http.StatusOK, s.ipResponse(r, loc, "geoip", res))
}

func (s *Service) ipResponse(r *http.Request, loc geoip.Location, source string, res Lookup) ipResponse {
	return ipResponse{
		Location: loc,
		Source:   source,
		Timezone: res.Timezone,
		Fallback: res.Fallback,
		Version:  res.Version,
		Details:  s.details(r, res.Timezone, res.Lng),
	}
}

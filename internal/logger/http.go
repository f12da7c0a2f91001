// 包 logger：HTTP 访问日志；处理器可经 Annotate 把查询结果（时区、是否兜底、缓存命中）附到同一行访问日志上
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// recorder 捕获状态码与字节数，并收集处理过程中追加的属性
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int

	mu    sync.Mutex
	attrs []any
}

func (w *recorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

type recorderKey struct{}

// Annotate 为当前请求的访问日志追加键值对；ctx 不来自 AccessMiddleware 时无操作
func Annotate(ctx context.Context, args ...any) {
	rec, ok := ctx.Value(recorderKey{}).(*recorder)
	if !ok || len(args) == 0 {
		return
	}
	rec.mu.Lock()
	rec.attrs = append(rec.attrs, args...)
	rec.mu.Unlock()
}

// AccessMiddleware 每个请求一行 http_access（debug 级别），5xx 升为 warn
// 约束：不读取请求体；查询串原样记录，便于复现坐标查询。
func AccessMiddleware(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), recorderKey{}, rec)))

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
			}
			rec.mu.Lock()
			args = append(args, rec.attrs...)
			rec.mu.Unlock()

			level := slog.LevelDebug
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			l.Log(r.Context(), level, "http_access", args...)
		})
	}
}

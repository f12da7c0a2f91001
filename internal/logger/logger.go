// 包 logger：统一初始化与获取日志器；级别、格式与可选的滚动文件输出由配置决定
package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志配置；零值等价于 info 级别、文本格式、仅标准错误输出
type Options struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
	rotator       *lumberjack.Logger
)

// Setup：按环境变量初始化默认日志器
// 约束：LOG_LEVEL 取 debug/info/warn/error；LOG_FORMAT=json 时输出 JSON；LOG_FILE 非空时同时写入滚动文件。
func Setup() *slog.Logger {
	return SetupWith(OptionsFromEnv())
}

func OptionsFromEnv() Options {
	o := Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
		File:   os.Getenv("LOG_FILE"),
	}
	o.MaxSizeMB, _ = strconv.Atoi(os.Getenv("LOG_MAX_SIZE_MB"))
	o.MaxBackups, _ = strconv.Atoi(os.Getenv("LOG_MAX_BACKUPS"))
	o.MaxAgeDays, _ = strconv.Atoi(os.Getenv("LOG_MAX_AGE_DAYS"))
	return o
}

// SetupWith：按给定配置替换默认日志器
func SetupWith(o Options) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	var out io.Writer = os.Stderr
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	if o.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	defaultLogger = New(out, o.Level, o.Format)
	return defaultLogger
}

// New 构造独立日志器，不影响默认日志器
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L：获取默认日志器，未初始化时回退到 Setup
func L() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Setup()
	}
	return l
}

// Rotate 手动触发文件滚动；未配置文件输出时无操作
func Rotate() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	return rotator.Rotate()
}

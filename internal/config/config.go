// 包 config：分层配置（结构体默认值 → TOML 文件 → 环境变量）
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Addr      string    `koanf:"addr"`
	API       API       `koanf:"api"`
	Dataset   Dataset   `koanf:"dataset"`
	Index     Index     `koanf:"index"`
	Cache     Cache     `koanf:"cache"`
	Redis     Redis     `koanf:"redis"`
	PG        Postgres  `koanf:"pg"`
	Stats     Stats     `koanf:"stats"`
	GeoIP     GeoIP     `koanf:"geoip"`
	RateLimit RateLimit `koanf:"ratelimit"`
	TLS       TLS       `koanf:"tls"`
	Origin    Origin    `koanf:"origin"`
	UI        UI        `koanf:"ui"`
	Log       Log       `koanf:"log"`
}

type API struct {
	Base string `koanf:"base"`
}

// Dataset 为空时使用内置数据集
type Dataset struct {
	Path string `koanf:"path"`
}

type Index struct {
	Kind    string  `koanf:"kind"`
	CellDeg float64 `koanf:"cell_deg"`
}

type Cache struct {
	Size int `koanf:"size"`
	TTLS int `koanf:"ttl_s"`
}

// Redis Host 为空表示不启用
type Redis struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	Pass string `koanf:"pass"`
	DB   int    `koanf:"db"`
	TTLS int    `koanf:"ttl_s"`
}

// Postgres Host 为空表示不启用统计落库
type Postgres struct {
	Host         string `koanf:"host"`
	Port         string `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DB           string `koanf:"db"`
	SSLMode      string `koanf:"sslmode"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

type Stats struct {
	Enabled bool `koanf:"enabled"`
}

type GeoIP struct {
	Path string `koanf:"path"`
}

type RateLimit struct {
	Enabled bool    `koanf:"enabled"`
	QPS     float64 `koanf:"qps"`
	Burst   int     `koanf:"burst"`
}

type TLS struct {
	Enabled  bool   `koanf:"enabled"`
	CertPath string `koanf:"cert_path"`
	KeyPath  string `koanf:"key_path"`
	CN       string `koanf:"cn"`
}

// Origin 源站访问白名单；RealIPHeader 为可信代理写入的真实来源头
type Origin struct {
	Enabled      bool   `koanf:"enabled"`
	AllowIPs     string `koanf:"allow_ips"`
	AllowCIDRs   string `koanf:"allow_cidrs"`
	AllowLocal   bool   `koanf:"allow_local"`
	RealIPHeader string `koanf:"real_ip_header"`
}

// UI 前端静态文件目录；目录不存在时不挂载
type UI struct {
	Dir string `koanf:"dir"`
}

type Log struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		API:       API{Base: "/api"},
		Index:     Index{Kind: "rtree", CellDeg: 1},
		Cache:     Cache{Size: 65536, TTLS: 3600},
		Redis:     Redis{Port: "6379", TTLS: 86400},
		PG:        Postgres{Port: "5432", User: "postgres", DB: "tzapi", SSLMode: "disable", MaxOpenConns: 20, MaxIdleConns: 10},
		GeoIP:     GeoIP{Path: filepath.Join("data", "geoip", "GeoLite2-City.mmdb")},
		RateLimit: RateLimit{QPS: 50, Burst: 100},
		TLS: TLS{
			CertPath: filepath.Join("data", "certs", "server.crt"),
			KeyPath:  filepath.Join("data", "certs", "server.key"),
			CN:       "tz-api.local",
		},
		UI:  UI{Dir: filepath.Join("ui", "dist")},
		Log: Log{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30},
	}
}

// 环境变量只接受这些顶层段，避免 PATH、HOME 之类混入
var sections = map[string]bool{
	"addr": true, "api": true, "dataset": true, "index": true, "cache": true, "redis": true,
	"pg": true, "stats": true, "geoip": true, "ratelimit": true, "tls": true, "origin": true, "ui": true, "log": true,
}

// envKey LOG_MAX_SIZE_MB → log.max_size_mb：只有第一个下划线是层级分隔
func envKey(s string) string {
	s = strings.ToLower(s)
	sec, rest, _ := strings.Cut(s, "_")
	if !sections[sec] {
		return ""
	}
	if rest == "" {
		return sec
	}
	return sec + "." + rest
}

// Load 先读 .env（不覆盖已有环境变量），再按 默认值 → CONFIG_FILE → 环境变量 合并
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

func LoadFrom(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}
	var c Config
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c.API.Base = normalizeBase(c.API.Base)
	return c, nil
}

func normalizeBase(b string) string {
	b = strings.TrimRight(strings.TrimSpace(b), "/")
	if b != "" && !strings.HasPrefix(b, "/") {
		b = "/" + b
	}
	return b
}

// RedisAddr 未配置主机时返回空串
func (c Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}

// PostgresDSN 未配置主机时返回空串
func (c Config) PostgresDSN() string {
	p := c.PG
	if p.Host == "" {
		return ""
	}
	dsn := "postgres://" + p.User
	if p.Password != "" {
		dsn += ":" + p.Password
	}
	return dsn + "@" + p.Host + ":" + p.Port + "/" + p.DB + "?sslmode=" + p.SSLMode
}

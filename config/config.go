package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 服务配置，全部来自环境变量，.env 文件中的值不会覆盖已有变量
type Config struct {
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// 音源
	Aggregator     string        `env:"SOURCE_AGGREGATOR" envDefault:"gdstudio"`
	GDStudioAPIURL string        `env:"GDSTUDIO_API_URL"`
	LerdAPIURL     string        `env:"LERD_API_URL"`
	LanyinAPIURL   string        `env:"LANYIN_API_URL"`
	LanyinAPIKey   string        `env:"LANYIN_API_KEY"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"15s"`
	OpenDevTools   bool          `env:"OPEN_DEV_TOOLS" envDefault:"false"`

	// 限流，RATE_LIMIT_MAX <= 0 表示不限流
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"50"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"5m"`

	// 更新检查
	UpdateEnabled    bool          `env:"UPDATE_ENABLED" envDefault:"true"`
	UpdateVersionURL string        `env:"UPDATE_VERSION_URL"`
	UpdateFormat     string        `env:"UPDATE_FORMAT" envDefault:"json"`
	UpdateScriptURL  string        `env:"UPDATE_SCRIPT_URL"`
	UpdateTimeout    time.Duration `env:"UPDATE_TIMEOUT" envDefault:"15s"`
	UpdateDelay      time.Duration `env:"UPDATE_DELAY" envDefault:"2s"`
	CurrentVersion   string        `env:"CURRENT_VERSION" envDefault:"v2.2.4"`

	// 为空时桥接接口不校验令牌
	AuthSecret string `env:"AUTH_SECRET"`

	ProxyUserAgent string `env:"PROXY_USER_AGENT" envDefault:"okhttp"`
	VodBaseURL     string `env:"VOD_BASE_URL"`

	// 日志
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// gdstudio 聚合器自带的更新检查地址
const (
	DefaultGDStudioVersionURL = "https://zrcdy.dpdns.org/version.php"
	DefaultGDStudioScriptURL  = "https://zrcdy.dpdns.org/xinghai-music-source.js"
)

var validFormats = map[string]bool{"json": true, "text": true, "lanyin": true}

// Load 读取 .env 和环境变量
func Load() (*Config, error) {
	// godotenv.Load() 不会覆盖已有的环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return Parse()
}

// Parse 只从环境变量解析配置
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 补齐依赖聚合器的默认值，显式设置的变量优先
func (c *Config) applyDefaults() {
	if c.Aggregator != "gdstudio" {
		return
	}
	if c.UpdateVersionURL == "" {
		c.UpdateVersionURL = DefaultGDStudioVersionURL
	}
	if c.UpdateScriptURL == "" {
		c.UpdateScriptURL = DefaultGDStudioScriptURL
	}
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if !validFormats[c.UpdateFormat] {
		return fmt.Errorf("invalid UPDATE_FORMAT %q, want json, text or lanyin", c.UpdateFormat)
	}
	if c.RateLimitMax > 0 && c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_MAX is set")
	}
	if c.ResolveTimeout < 0 || c.UpdateTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

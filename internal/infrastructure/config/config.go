package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Formatter   FormatterConfig  `mapstructure:"formatter"`
	Ranking     RankingConfig    `mapstructure:"ranking"`
	Pantry      PantryConfig     `mapstructure:"pantry"`
	Audit       AuditConfig      `mapstructure:"audit"`
	Catalog     CatalogConfig    `mapstructure:"catalog"`
	Lookup      LookupConfig     `mapstructure:"lookup"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Queue       QueueConfig      `mapstructure:"queue"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
	LogDir      string           `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// FormatterConfig 做法整理設定
type FormatterConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// RankingConfig 排序設定
type RankingConfig struct {
	TopK int `mapstructure:"top_k"`
}

// PantryConfig 商品儲存設定
type PantryConfig struct {
	Backend       string `mapstructure:"backend"` // memory | badger | redis
	BadgerDir     string `mapstructure:"badger_dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// AuditConfig 比對紀錄設定
type AuditConfig struct {
	Backend string `mapstructure:"backend"` // file | badger
	Dir     string `mapstructure:"dir"`
}

// CatalogConfig 食譜目錄設定
type CatalogConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
	SeedFile   string `mapstructure:"seed_file"`
}

// LookupConfig 商品查詢設定
type LookupConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig AI 呼叫並行設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 從目前目錄的 .env 與環境變數載入設定
func LoadConfig() (*Config, error) {
	return Load(".env")
}

// Load 載入設定，envFile 不存在時只使用環境變數與預設值
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用的環境變量
	bindings := map[string]string{
		"openrouter.api_key":    "OPENROUTER_API_KEY",
		"openrouter.model":      "OPENROUTER_MODEL",
		"openrouter.max_tokens": "MODEL_MAX_TOKENS",
		"openrouter.enabled":    "OPENROUTER_ENABLED",
		"server.port":           "PORT",
		"pantry.backend":        "PANTRY_BACKEND",
		"pantry.redis_addr":     "REDIS_ADDR",
		"catalog.sqlite_path":   "CATALOG_PATH",
		"cache.enabled":         "CACHE_ENABLED",
		"rate_limit.enabled":    "RATE_LIMIT_ENABLED",
		"rate_limit.requests":   "RATE_LIMIT_REQUESTS",
		"rate_limit.window":     "RATE_LIMIT_WINDOW",
		"dedup_window":          "DEDUP_WINDOW",
		"log_level":             "LOG_LEVEL",
		"log_dir":               "LOG_DIR",
	}
	for key, env := range bindings {
		// 同時保留 APP_ 前綴的名稱
		prefixed := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&config)

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "pantry-matcher")

	// 伺服器設定
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 32*1024*1024)

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "meta-llama/llama-3.1-8b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 1000)
	v.SetDefault("openrouter.timeout", "30s")

	// 做法整理設定
	v.SetDefault("formatter.timeout", "15s")
	v.SetDefault("formatter.failure_threshold", 5)
	v.SetDefault("formatter.open_timeout", "30s")

	v.SetDefault("ranking.top_k", 2)

	// 儲存設定
	v.SetDefault("pantry.backend", "badger")
	v.SetDefault("pantry.badger_dir", "data/badger")
	v.SetDefault("pantry.redis_addr", "localhost:6379")
	v.SetDefault("pantry.redis_password", "")
	v.SetDefault("pantry.redis_db", 0)
	v.SetDefault("pantry.key_prefix", "pantry")
	v.SetDefault("audit.backend", "file")
	v.SetDefault("audit.dir", "match_logs")
	v.SetDefault("catalog.sqlite_path", "data/recipes.db")
	v.SetDefault("catalog.seed_file", "")

	// 商品查詢設定
	v.SetDefault("lookup.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("lookup.timeout", "10s")
	v.SetDefault("lookup.rate_per_second", 10)
	v.SetDefault("lookup.burst", 5)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("queue.workers", 4)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

func normalize(config *Config) {
	config.Pantry.Backend = strings.ToLower(strings.TrimSpace(config.Pantry.Backend))
	config.Audit.Backend = strings.ToLower(strings.TrimSpace(config.Audit.Backend))
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))
	// 沒有 API key 時不啟用做法整理
	if config.OpenRouter.APIKey == "" {
		config.OpenRouter.Enabled = false
	}
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if config.Ranking.TopK <= 0 {
		return fmt.Errorf("ranking top_k must be positive")
	}
	if config.Formatter.Timeout <= 0 {
		return fmt.Errorf("formatter timeout must be positive")
	}
	if config.Lookup.Timeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}

	switch config.Pantry.Backend {
	case "memory", "badger":
	case "redis":
		if config.Pantry.RedisAddr == "" {
			return fmt.Errorf("pantry redis_addr is required")
		}
	default:
		return fmt.Errorf("unknown pantry backend %q", config.Pantry.Backend)
	}

	switch config.Audit.Backend {
	case "file":
		if config.Audit.Dir == "" {
			return fmt.Errorf("audit dir is required")
		}
	case "badger":
	default:
		return fmt.Errorf("unknown audit backend %q", config.Audit.Backend)
	}

	if config.Catalog.SQLitePath == "" {
		return fmt.Errorf("catalog sqlite_path is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	AI         AIConfig         `mapstructure:"ai"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Instagram  InstagramConfig  `mapstructure:"instagram"`
	WhatsApp   WhatsAppConfig   `mapstructure:"whatsapp"`
	Storage    StorageConfig    `mapstructure:"storage"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Image      ImageConfig      `mapstructure:"image"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Recipe     RecipeConfig     `mapstructure:"recipe"`

	DedupWindow time.Duration `mapstructure:"dedup_window"`
	LogLevel    string        `mapstructure:"log_level"`
	LogDir      string        `mapstructure:"log_dir"`
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
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig 資料庫設定
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Required        bool          `mapstructure:"required"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Referer   string        `mapstructure:"referer"`
	Title     string        `mapstructure:"title"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GeminiConfig Gemini 配置
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AIConfig AI 配置
type AIConfig struct {
	Provider          string  `mapstructure:"provider"`
	Temperature       float64 `mapstructure:"temperature"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig Redis 設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 請求隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	Burst    int           `mapstructure:"burst"`
}

// CORSConfig 跨域設定
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig 認證設定
type AuthConfig struct {
	SupabaseURL       string `mapstructure:"supabase_url"`
	SupabaseJWTSecret string `mapstructure:"supabase_jwt_secret"`
}

// InstagramConfig Instagram 擷取設定
type InstagramConfig struct {
	ApifyToken   string        `mapstructure:"apify_token"`
	ApifyActor   string        `mapstructure:"apify_actor"`
	ApifyBaseURL string        `mapstructure:"apify_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// WhatsAppConfig WhatsApp 分享設定
type WhatsAppConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	PhoneNumber string        `mapstructure:"phone_number"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig 上傳檔案儲存設定
type StorageConfig struct {
	Backend        string `mapstructure:"backend"`
	UploadDir      string `mapstructure:"upload_dir"`
	PublicPath     string `mapstructure:"public_path"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	MinioPublicURL string `mapstructure:"minio_public_url"`
}

// OCRConfig OCR 設定
type OCRConfig struct {
	TesseractPath string        `mapstructure:"tesseract_path"`
	PdftoppmPath  string        `mapstructure:"pdftoppm_path"`
	Languages     string        `mapstructure:"languages"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	MaxCount     int   `mapstructure:"max_count"`
	MaxDimension int   `mapstructure:"max_dimension"`
	MaxPDFBytes  int64 `mapstructure:"max_pdf_bytes"`
}

// ScraperConfig 網頁擷取設定
type ScraperConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxContentBytes int64         `mapstructure:"max_content_bytes"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// RecipeConfig 食譜設定
type RecipeConfig struct {
	MaxTags int `mapstructure:"max_tags"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件，不存在時只使用環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvs()

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 逗號分隔的來源清單，viper 可能已先切分但未去除空白
	config.CORS.AllowedOrigins = flattenList(config.CORS.AllowedOrigins)

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"ai_provider:", config.AI.Provider,
		"openrouter_api_key:", maskAPIKey(config.OpenRouter.APIKey),
		"openrouter_model:", config.OpenRouter.Model,
		"database:", config.Database.URL != "",
		"storage:", config.Storage.Backend,
	)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnvs 綁定環境變量
func bindEnvs() {
	bindings := map[string]string{
		"app.env":                     "ENVIRONMENT",
		"app.debug":                   "DEBUG",
		"server.port":                 "PORT",
		"database.url":                "DATABASE_URL",
		"database.required":           "DATABASE_REQUIRED",
		"database.auto_migrate":       "DATABASE_AUTO_MIGRATE",
		"openrouter.api_key":          "OPENROUTER_API_KEY",
		"openrouter.model":            "OPENROUTER_MODEL",
		"openrouter.base_url":         "OPENROUTER_BASE_URL",
		"openrouter.max_tokens":       "MODEL_MAX_TOKENS",
		"gemini.api_key":              "GEMINI_API_KEY",
		"gemini.model":                "GEMINI_MODEL",
		"ai.provider":                 "AI_PROVIDER",
		"ai.requests_per_minute":      "AI_REQUESTS_PER_MINUTE",
		"cache.enabled":               "CACHE_ENABLED",
		"cache.backend":               "CACHE_BACKEND",
		"redis.addr":                  "REDIS_ADDR",
		"redis.password":              "REDIS_PASSWORD",
		"redis.db":                    "REDIS_DB",
		"rate_limit.enabled":          "RATE_LIMIT_ENABLED",
		"rate_limit.requests":         "RATE_LIMIT_REQUESTS",
		"rate_limit.window":           "RATE_LIMIT_WINDOW",
		"cors.allowed_origins":        "CORS_ALLOWED_ORIGINS",
		"auth.supabase_url":           "SUPABASE_URL",
		"auth.supabase_jwt_secret":    "SUPABASE_JWT_SECRET",
		"instagram.apify_token":       "APIFY_TOKEN",
		"instagram.apify_actor":       "APIFY_ACTOR",
		"whatsapp.api_key":            "WHATSAPP_API_KEY",
		"whatsapp.phone_number":       "WHATSAPP_PHONE_NUMBER",
		"storage.backend":             "STORAGE_BACKEND",
		"storage.upload_dir":          "UPLOAD_DIR",
		"storage.minio_endpoint":      "MINIO_ENDPOINT",
		"storage.minio_access_key":    "MINIO_ACCESS_KEY",
		"storage.minio_secret_key":    "MINIO_SECRET_KEY",
		"storage.minio_bucket":        "MINIO_BUCKET",
		"storage.minio_use_ssl":       "MINIO_USE_SSL",
		"storage.minio_public_url":    "MINIO_PUBLIC_URL",
		"ocr.tesseract_path":          "TESSERACT_PATH",
		"ocr.pdftoppm_path":           "PDFTOPPM_PATH",
		"ocr.languages":               "OCR_LANGUAGES",
		"recipe.max_tags":             "RECIPE_MAX_TAGS",
		"dedup_window":                "DEDUP_WINDOW",
		"log_level":                   "LOG_LEVEL",
		"log_dir":                     "LOG_DIR",
	}
	for key, env := range bindings {
		_ = viper.BindEnv(key, env)
	}
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// flattenList 逐項切分並去除空白
func flattenList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, splitList(item)...)
	}
	return out
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "souschef")

	// 伺服器設定
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "150s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.request_timeout", "120s")
	viper.SetDefault("server.max_body_bytes", 1<<20)
	viper.SetDefault("server.max_upload_bytes", 120<<20)

	// 資料庫設定
	viper.SetDefault("database.required", false)
	viper.SetDefault("database.auto_migrate", true)
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "30m")

	// OpenRouter 設定
	viper.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("openrouter.model", "anthropic/claude-3-haiku")
	viper.SetDefault("openrouter.max_tokens", 2000)
	viper.SetDefault("openrouter.referer", "https://souschef.app")
	viper.SetDefault("openrouter.title", "SousChef Recipe Extractor")
	viper.SetDefault("openrouter.timeout", "60s")

	// Gemini 設定
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", "60s")

	// AI 設定
	viper.SetDefault("ai.provider", "openrouter")
	viper.SetDefault("ai.temperature", 0.1)
	viper.SetDefault("ai.requests_per_minute", 60)

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "souschef:ai:")

	// 隊列設定
	viper.SetDefault("queue.workers", 5)
	viper.SetDefault("queue.max_size", 100)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 30)
	viper.SetDefault("rate_limit.window", "1m")
	viper.SetDefault("rate_limit.burst", 5)

	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Instagram 設定
	viper.SetDefault("instagram.apify_actor", "apify/instagram-post-scraper")
	viper.SetDefault("instagram.apify_base_url", "https://api.apify.com/v2")
	viper.SetDefault("instagram.timeout", "120s")

	// WhatsApp 設定
	viper.SetDefault("whatsapp.base_url", "https://api.callmebot.com")
	viper.SetDefault("whatsapp.timeout", "30s")

	// 儲存設定
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.upload_dir", "uploads")
	viper.SetDefault("storage.public_path", "/uploads")
	viper.SetDefault("storage.minio_bucket", "souschef-uploads")

	// OCR 設定
	viper.SetDefault("ocr.tesseract_path", "tesseract")
	viper.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	viper.SetDefault("ocr.languages", "eng")
	viper.SetDefault("ocr.timeout", "60s")

	// 圖片設定
	viper.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB
	viper.SetDefault("image.max_count", 10)
	viper.SetDefault("image.max_dimension", 2400)
	viper.SetDefault("image.max_pdf_bytes", 20*1024*1024)

	// 網頁擷取設定
	viper.SetDefault("scraper.timeout", "30s")
	viper.SetDefault("scraper.max_content_bytes", 1024*1024)
	viper.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	viper.SetDefault("recipe.max_tags", 5)

	viper.SetDefault("dedup_window", "2s")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.AI.Provider {
	case "openrouter":
		if config.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required when ai.provider is openrouter")
		}
	case "gemini":
		if config.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when ai.provider is gemini")
		}
	default:
		return fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
			return fmt.Errorf("unsupported cache backend: %s", config.Cache.Backend)
		}
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	switch config.Storage.Backend {
	case "local":
	case "minio":
		if config.Storage.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required when storage.backend is minio")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", config.Storage.Backend)
	}

	if config.Database.Required && config.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if config.Recipe.MaxTags <= 0 {
		return fmt.Errorf("invalid recipe max tags")
	}

	return nil
}

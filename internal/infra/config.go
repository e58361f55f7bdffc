package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	LogLevel      string
	Port          string
	DBDriver      string
	DatabaseURL   string
	SQLitePath    string
	DefaultLocale string
	GeoIPDBPath   string

	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiTextModel   string
	GeminiVideoModel  string
	GeminiVerifyModel string

	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollMultiplier  float64
	PollMaxAttempts int
	WorkflowTimeout time.Duration

	ReconcileOnStart bool
	ReconcileStale   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string

	FeedbackPath        string
	FeedbackMinInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      strings.ToLower(os.Getenv("LOG_LEVEL")),
		Port:          getEnv("PORT", "5001"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DBDriverSQLite)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "ad_videos.db"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "zh"),
		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),

		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiVideoModel:  getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-generate-preview"),
		GeminiVerifyModel: getEnv("GEMINI_VERIFY_MODEL", "gemini-2.0-flash-lite"),

		PollInterval:    time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		PollMaxInterval: time.Second * time.Duration(getEnvInt("POLL_MAX_INTERVAL_SECONDS", 30)),
		PollMultiplier:  getEnvFloat("POLL_MULTIPLIER", 1.0),
		PollMaxAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 90),
		WorkflowTimeout: time.Second * time.Duration(getEnvInt("WORKFLOW_TIMEOUT_SECONDS", 20*60)),

		ReconcileOnStart: getEnvBool("RECONCILE_ON_START", true),
		ReconcileStale:   time.Minute * time.Duration(getEnvInt("RECONCILE_STALE_MINUTES", 0)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 25*60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 6),
		AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		FeedbackPath:        getEnv("FEEDBACK_PATH", "./data"),
		FeedbackMinInterval: time.Second * time.Duration(getEnvInt("FEEDBACK_MIN_INTERVAL_SECONDS", 30)),
	}

	switch cfg.DBDriver {
	case DBDriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	case DBDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.PollMaxInterval < cfg.PollInterval {
		cfg.PollMaxInterval = cfg.PollInterval
	}
	if cfg.PollMultiplier < 1 {
		cfg.PollMultiplier = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devSessionSecret is only acceptable for local development. Load refuses
// to start a production process with it.
const devSessionSecret = "default-secret-change-me"

// Config contains runtime configuration values.
type Config struct {
	Environment        string
	HTTPPort           string
	ServiceName        string
	SessionSecret      string
	SessionTTL         time.Duration
	StateTTL           time.Duration
	CookieSecure       bool
	LineChannelID      string
	LineChannelSecret  string
	LineCallbackURL    string
	ServiceAccountKey  []byte
	ConfigSheetID      string
	ConfigSheetTab     string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitRPM       int
	TelemetryEndpoint  string
	TelemetryInsecure  bool
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		ServiceName:        getEnv("SERVICE_NAME", "expense-bot-setup"),
		SessionSecret:      strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTL:         getDuration("SESSION_TTL", time.Hour),
		StateTTL:           getDuration("STATE_TTL", 5*time.Minute),
		CookieSecure:       getBool("COOKIE_SECURE", true),
		LineChannelID:      strings.TrimSpace(os.Getenv("LINE_LOGIN_CHANNEL_ID")),
		LineChannelSecret:  strings.TrimSpace(os.Getenv("LINE_LOGIN_CHANNEL_SECRET")),
		LineCallbackURL:    strings.TrimSpace(os.Getenv("LINE_LOGIN_CALLBACK_URL")),
		ConfigSheetID:      strings.TrimSpace(os.Getenv("CONFIG_SHEET_ID")),
		ConfigSheetTab:     getEnv("CONFIG_SHEET_TAB", "configs"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 300),
		TelemetryEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", nil),
	}

	if cfg.LineChannelID == "" {
		return Config{}, fmt.Errorf("LINE_LOGIN_CHANNEL_ID is required")
	}
	if cfg.LineChannelSecret == "" {
		return Config{}, fmt.Errorf("LINE_LOGIN_CHANNEL_SECRET is required")
	}
	if cfg.LineCallbackURL == "" {
		return Config{}, fmt.Errorf("LINE_LOGIN_CALLBACK_URL is required")
	}
	if cfg.ConfigSheetID == "" {
		return Config{}, fmt.Errorf("CONFIG_SHEET_ID is required")
	}

	if cfg.SessionSecret == "" {
		if cfg.Environment == "production" {
			return Config{}, fmt.Errorf("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = devSessionSecret
	}

	rawKey := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY"))
	if rawKey == "" {
		return Config{}, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(rawKey)
	if err != nil {
		return Config{}, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_KEY must be base64-encoded JSON: %w", err)
	}
	cfg.ServiceAccountKey = key

	return cfg, nil
}

// UsesDevSecret reports whether the insecure development fallback secret is
// in effect, so startup can log loudly about it.
func (c Config) UsesDevSecret() bool {
	return c.SessionSecret == devSessionSecret
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}

package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config is built once at startup and injected everywhere; nothing in
// the process reads environment variables after LoadConfig returns.
type Config struct {
	SigningSecret string // Required: HMAC key for token payloads
	BaseURL       string // Required: externally reachable origin for /watch and /verify

	PendingWindow time.Duration // Validity of an unredeemed token (default: 12h)
	AccessWindow  time.Duration // Grant duration after redemption (default: 12h)

	ShortenerAPIURL  string        // Ad-shortener endpoint (default: adrinolinks)
	ShortenerAPIKey  string        // Optional: empty disables shortening
	ShortenerTimeout time.Duration // Bound on the shortener round-trip (default: 10s)

	BotToken    string // Optional: Telegram bot token for notifications
	BotUsername string // Optional: deep-link target after redemption
	AdminChatID string // Optional: operator chat pinged on activation

	AdminJWTSecret string // Optional: empty disables the internal JSON API
	RedisAddr      string // Optional: empty disables the access cache

	DatabaseFile         string        // Path to SQLite database file (default: ./gate.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expiry sweep cadence (default: 1h)
}

var (
	ErrMissingSigningSecret = errors.New("GATE_SIGNING_SECRET is required")
	ErrMissingBaseURL       = errors.New("GATE_BASE_URL is required")
)

func LoadConfig() Config {
	return Config{
		SigningSecret: os.Getenv("GATE_SIGNING_SECRET"),
		BaseURL:       os.Getenv("GATE_BASE_URL"),

		PendingWindow: getEnvDurationOrDefault("GATE_PENDING_WINDOW", 12*time.Hour),
		AccessWindow:  getEnvDurationOrDefault("GATE_ACCESS_WINDOW", 12*time.Hour),

		ShortenerAPIURL:  getEnvOrDefault("GATE_SHORTENER_API_URL", "https://adrinolinks.in/api"),
		ShortenerAPIKey:  os.Getenv("GATE_SHORTENER_API_KEY"),
		ShortenerTimeout: getEnvDurationOrDefault("GATE_SHORTENER_TIMEOUT", 10*time.Second),

		BotToken:    os.Getenv("GATE_BOT_TOKEN"),
		BotUsername: os.Getenv("GATE_BOT_USERNAME"),
		AdminChatID: os.Getenv("GATE_ADMIN_CHAT_ID"),

		AdminJWTSecret: os.Getenv("GATE_ADMIN_JWT_SECRET"),
		RedisAddr:      os.Getenv("GATE_REDIS_ADDR"),

		DatabaseFile:         getEnvOrDefault("GATE_DATABASE_FILE", "gate.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects configurations the service cannot safely run with.
// Rotating the signing secret invalidates every outstanding pending
// token but not already-redeemed grants, so an empty secret is never
// an acceptable fallback.
func (c Config) Validate() error {
	if c.SigningSecret == "" {
		return ErrMissingSigningSecret
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "12h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Fall back to integer seconds, which is how the windows are
	// usually configured in deployment manifests.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

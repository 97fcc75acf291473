package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CAFE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CAFE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	OperatorKey string `usage:"Shared key for staff endpoints (CAFE_OPERATOR_KEY)" flag:"operator-key"`
	KeyPepper   string `usage:"HMAC pepper for operator key hashing (CAFE_KEY_PEPPER)" flag:"key-pepper"`
	Store       StoreConfig
	Telegram    TelegramConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// StoreConfig describes the weekly opening schedule and manual override
// behavior of the storefront.
type StoreConfig struct {
	Timezone         string        `default:"Asia/Dhaka" usage:"IANA timezone the schedule is evaluated in"`
	OpensAt          string        `default:"10:00" usage:"Daily opening time (HH:MM)" flag:"opens-at"`
	ClosesAt         string        `default:"22:00" usage:"Daily closing time (HH:MM)" flag:"closes-at"`
	ClosedDays       []string      `usage:"Weekdays the store never opens (e.g. Sunday)" flag:"closed-days"`
	OverrideDuration time.Duration `default:"60m" usage:"Default lifetime of a manual open/closed override" flag:"override-duration"`
}

// TelegramConfig enables order notifications when both fields are set.
type TelegramConfig struct {
	Token  string `usage:"Telegram bot token (CAFE_TELEGRAM_TOKEN)"`
	ChatID string `usage:"Telegram chat to notify (CAFE_TELEGRAM_CHAT_ID)" flag:"chat-id"`
}

// KafkaConfig enables publishing order events to a Kafka topic when brokers
// are configured.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses; empty disables the sink"`
	Topic   string   `default:"cafe.orders" usage:"Kafka topic for order events"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CAFE",
		Files:     []string{"config.yaml", "/etc/cafe/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CAFE_DATABASE_URL or DATABASE_URL")
	}
	if cfg.OperatorKey == "" {
		return nil, errors.New("operator key is required: set CAFE_OPERATOR_KEY")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's CAFE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// Config - глобальная конфигурация бота. Все значения из ENV
// (в локальной среде подтягиваются через godotenv/autoload в main).
type Config struct {
	Env      string // "local", "prod"
	HTTPAddr string

	Telegram TelegramConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Doma     DomaConfig
	Peter    PeterConfig
	Poll     PollConfig
}

type TelegramConfig struct {
	BotToken   string
	AdminID    int64
	WebhookURL string // Пусто = long polling
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DomaConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type PeterConfig struct {
	APIURL     string
	WebsiteURL string
	Timeout    time.Duration
}

type PollConfig struct {
	Limit         int           // Страница фида за цикл
	Interval      time.Duration // Период крона
	FanOut        int           // Параллельных доставок на событие
	AdvancePolicy domain.AdvancePolicy
	CursorBackend string // "postgres" или "redis"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:      getenv("APP_ENV", "local"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		Telegram: TelegramConfig{
			BotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
			AdminID:    int64env("TELEGRAM_ADMIN_ID", 0),
			WebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		},
		Database: DatabaseConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     intenv("DB_PORT", 5432),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getenv("DB_NAME", "domainape"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intenv("REDIS_DB", 0),
		},
		Doma: DomaConfig{
			BaseURL: getenv("DOMA_API_URL", "https://api-testnet.doma.xyz"),
			APIKey:  os.Getenv("DOMA_API_KEY"),
			Timeout: durenv("DOMA_TIMEOUT_SEC", 10),
		},
		Peter: PeterConfig{
			APIURL:     os.Getenv("PETER_API_URL"),
			WebsiteURL: os.Getenv("PETER_WEBSITE_URL"),
			Timeout:    durenv("PETER_TIMEOUT_SEC", 60),
		},
		Poll: PollConfig{
			Limit:         intenv("POLL_LIMIT", 100),
			Interval:      durenv("POLL_INTERVAL_SEC", 60),
			FanOut:        intenv("NOTIFY_FANOUT", 5),
			AdvancePolicy: domain.AdvancePolicy(getenv("CURSOR_ADVANCE_POLICY", string(domain.AdvanceAlways))),
			CursorBackend: getenv("CURSOR_BACKEND", "postgres"),
		},
	}

	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.Poll.Limit <= 0 {
		return nil, fmt.Errorf("POLL_LIMIT must be positive, got %d", cfg.Poll.Limit)
	}
	switch cfg.Poll.AdvancePolicy {
	case domain.AdvanceAlways, domain.AdvanceBlockOnFailure:
	default:
		return nil, fmt.Errorf("unknown CURSOR_ADVANCE_POLICY: %q", cfg.Poll.AdvancePolicy)
	}
	switch cfg.Poll.CursorBackend {
	case "postgres", "redis":
	default:
		return nil, fmt.Errorf("unknown CURSOR_BACKEND: %q", cfg.Poll.CursorBackend)
	}

	return cfg, nil
}

// --- env helpers ---

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intenv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func int64env(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func durenv(key string, defSec int) time.Duration {
	return time.Duration(intenv(key, defSec)) * time.Second
}

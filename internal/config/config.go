package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Google   GoogleConfig
	Digest   DigestConfig
	MongoDB  MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port    string
	BaseURL string
}

// TelegramConfig contains credentials and options for the Telegram Bot API.
type TelegramConfig struct {
	BotToken      string
	BaseURL       string
	WebhookSecret string
}

// GoogleConfig contains the OAuth client used to obtain per-user Sheets access.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// DigestConfig holds scheduler-related settings for the weekly spending digest.
type DigestConfig struct {
	CronSchedule string
	Timezone     string
}

// MongoDBConfig holds settings for the user directory database.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	baseURL := strings.TrimSuffix(os.Getenv("BASE_URL"), "/")

	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" && baseURL != "" {
		redirectURL = baseURL + "/auth/callback"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    getenvWithDefault("APP_PORT", "8080"),
			BaseURL: baseURL,
		},
		Telegram: TelegramConfig{
			BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
			BaseURL:       getenvWithDefault("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			WebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  redirectURL,
		},
		Digest: DigestConfig{
			CronSchedule: getenvWithDefault("DIGEST_CRON_SCHEDULE", "0 20 * * 0"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "spendbot"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN must be provided")
	}

	if c.Telegram.BaseURL == "" {
		return errors.New("TELEGRAM_API_BASE_URL must not be empty")
	}

	switch {
	case c.Google.ClientID == "":
		return errors.New("GOOGLE_CLIENT_ID must be provided")
	case c.Google.ClientSecret == "":
		return errors.New("GOOGLE_CLIENT_SECRET must be provided")
	case c.Google.RedirectURL == "":
		return errors.New("GOOGLE_REDIRECT_URL or BASE_URL must be provided")
	}

	if c.Digest.CronSchedule == "" {
		return errors.New("DIGEST_CRON_SCHEDULE must be provided")
	}

	if c.Digest.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Package config loads runtime settings from the environment, reading a
// .env file first during local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config contains all the application configuration values
type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"oneof=development production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	// Storage
	UseMemoryStore         bool
	DBHost                 string
	DBUser                 string `validate:"required_without=UseMemoryStore"`
	DBPass                 string
	DBName                 string `validate:"required_without=UseMemoryStore"`
	DBPort                 string `validate:"omitempty,numeric"`
	InstanceConnectionName string // Cloud SQL socket, set on Cloud Run

	// Twilio
	TwilioAccountSID         string
	TwilioAuthToken          string
	TwilioWhatsAppFrom       string // Format: "whatsapp:+14155238886"
	DisableWebhookValidation bool

	// Admin API, disabled when empty
	AdminAPIKey string `validate:"omitempty,min=16"`

	// Sessions
	SessionTTL    time.Duration `validate:"gt=0"`
	SweepInterval time.Duration `validate:"gt=0"`
}

// Load reads .env files when not running on Cloud Run, then builds and
// validates the Config from the environment
func Load() (*Config, error) {
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			// Missing files are fine, the environment may already be set
			_ = godotenv.Load("environments/.env.development")
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from the current environment without touching
// .env files
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPass:                 os.Getenv("DB_PASS"),
		DBName:                 getEnv("DB_NAME", "communitybot"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		InstanceConnectionName: os.Getenv("INSTANCE_CONNECTION_NAME"),

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
	}

	var err error
	if cfg.UseMemoryStore, err = getBool("USE_MEMORY_STORE", false); err != nil {
		return nil, err
	}
	if cfg.DisableWebhookValidation, err = getBool("DISABLE_WEBHOOK_VALIDATION", false); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SESSION_SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// TwilioConfigured reports whether outbound WhatsApp messages can be sent
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}

// ValidateWebhooks reports whether inbound webhooks must carry a valid
// Twilio signature
func (c *Config) ValidateWebhooks() bool {
	return c.Environment != "development" && !c.DisableWebhookValidation
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

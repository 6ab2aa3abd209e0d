// Package config loads service settings from the environment, with a
// local .env file honored in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailTo       string

	DatabaseURL string
	EnableDB    bool

	// BlankLineClosesCategory selects the stricter blank-line handling
	// in the metrics extractor.
	BlankLineClosesCategory bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:           os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:             os.Getenv("OPENAI_MODEL"),
		SMTPHost:                os.Getenv("SMTP_HOST"),
		SMTPPort:                getEnvInt("SMTP_PORT", 587),
		SMTPUsername:            os.Getenv("SMTP_USERNAME"),
		SMTPPassword:            os.Getenv("SMTP_PASSWORD"),
		MailTo:                  os.Getenv("MAIL_TO"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		EnableDB:                getEnvBool("ENABLE_DB", false),
		BlankLineClosesCategory: getEnvBool("BLANK_LINE_CLOSES_CATEGORY", false),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if cfg.SMTPHost != "" && cfg.SMTPUsername == "" {
		return nil, fmt.Errorf("SMTP_USERNAME is required when SMTP_HOST is set")
	}

	return cfg, nil
}

// MailEnabled reports whether the operator email copy should be sent.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true") || val == "1"
}

// Package config loads application settings from environment variables,
// with a .env file honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const earliestArchiveYear = 2002

// Config holds all application configuration.
type Config struct {
	Port        string
	DatabaseURL string
	SchemaPath  string
	RulesPath   string // optional, empty means built-in rules
	ArchiveBase string
	BaseYear    int
	UserAgent   string
	RefreshAt   string // daily refresh time, "HH:MM"
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SchemaPath:  getEnvWithDefault("SCHEMA_PATH", "internal/store/schema.sql"),
		RulesPath:   os.Getenv("RULES_PATH"),
		ArchiveBase: getEnvWithDefault("ARCHIVE_BASE", "https://www.drugs.com/newdrugs-archive"),
		BaseYear:    getIntEnvWithDefault("BASE_YEAR", earliestArchiveYear),
		UserAgent:   getEnvWithDefault("USER_AGENT", "approvals-hunter-bot/1.0"),
		RefreshAt:   getEnvWithDefault("REFRESH_AT", "03:00"),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a number: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.BaseYear < earliestArchiveYear || cfg.BaseYear > time.Now().Year() {
		return fmt.Errorf("BASE_YEAR must be between %d and the current year, got %d", earliestArchiveYear, cfg.BaseYear)
	}

	if _, err := time.Parse("15:04", cfg.RefreshAt); err != nil {
		return fmt.Errorf("REFRESH_AT must be HH:MM, got %q", cfg.RefreshAt)
	}

	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	DatabaseURL          string
	RedisURL             string
	LinkedInClientID     string
	LinkedInClientSecret string
	LinkedInRedirectURL  string
	TokenEncryptionKey   string
	Timezone             string

	// Cron expressions for the three periodic sweeps
	PublishSchedule string
	RecycleSchedule string
	AnalyzeSchedule string

	LogLevel  string
	LogFormat string
	Env       string
	Port      string

	// RunMode selects the process role: "all" runs worker, scheduler and the
	// health server in one process; "worker" runs a standalone worker and
	// scheduler with no HTTP surface.
	RunMode string
}

// Load reads configuration from the environment, loading a local .env file
// first if one exists.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		LinkedInClientID:     os.Getenv("LINKEDIN_CLIENT_ID"),
		LinkedInClientSecret: os.Getenv("LINKEDIN_CLIENT_SECRET"),
		LinkedInRedirectURL:  os.Getenv("LINKEDIN_REDIRECT_URI"),
		TokenEncryptionKey:   os.Getenv("TOKEN_ENCRYPTION_KEY"),
		Timezone:             getEnvWithDefault("SCHEDULER_TIMEZONE", "UTC"),
		PublishSchedule:      getEnvWithDefault("PUBLISH_SCHEDULE", "*/15 * * * *"),
		RecycleSchedule:      getEnvWithDefault("RECYCLE_SCHEDULE", "0 0 * * *"),
		AnalyzeSchedule:      getEnvWithDefault("ANALYZE_SCHEDULE", "0 0 * * 0"),
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvWithDefault("LOG_FORMAT", "text"),
		Env:                  getEnvWithDefault("ENV", "development"),
		Port:                 getEnvWithDefault("PORT", "8080"),
		RunMode:              getEnvWithDefault("RUN_MODE", "all"),
	}

	if cfg.TokenEncryptionKey == "" {
		log.Println("WARNING: TOKEN_ENCRYPTION_KEY not set; LinkedIn tokens will be stored in plaintext. Generate a key with: openssl rand -hex 32")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

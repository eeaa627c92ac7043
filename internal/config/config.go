package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string // empty disables the type cache and import limiter
	MigrationsDir string
	TypeCacheTTL  int // seconds
	ImportLimit   int // imports per owner per minute; 0 disables
}

// Load reads configuration from the environment, after merging in a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		TypeCacheTTL:  getEnvInt("TYPE_CACHE_TTL_SECONDS", 300),
		ImportLimit:   getEnvInt("IMPORT_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

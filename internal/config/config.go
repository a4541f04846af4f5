package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	RedisAddr      string
	SigningKey     []byte
	AllowedOrigins []string
	SweepInterval  time.Duration
	MigrationsPath string
	AdminUserId    int
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:     getEnv("SERVER_ADDR", "localhost:8000"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		SigningKey:     []byte(getEnv("JWT_SIGNING_KEY", "")),
		SweepInterval:  getEnvAsDuration("PRESENCE_SWEEP_INTERVAL", 5*time.Minute),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		AdminUserId:    getEnvAsInt("ADMIN_USER_ID", 1),
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	if len(c.SigningKey) == 0 {
		return fmt.Errorf("signing key cannot be empty")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	DatabasePath string

	JWTSecret          string
	AccessTokenMinutes int

	CORSOrigins []string

	RateLimitWindowMinutes int
	RateLimitMax           int
	AuthRateLimitMax       int

	ThreadPageSize int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppName: getEnv("APP_NAME", "unimarket"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8000),

		DatabasePath: getEnv("DATABASE_PATH", "unimarket.db"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24),

		RateLimitWindowMinutes: getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 15),
		RateLimitMax:           getEnvAsInt("RATE_LIMIT_MAX", 5000),
		AuthRateLimitMax:       getEnvAsInt("AUTH_RATE_LIMIT_MAX", 100),

		ThreadPageSize: getEnvAsInt("THREAD_PAGE_SIZE", 50),
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

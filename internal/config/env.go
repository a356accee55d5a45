package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"PoseFeedback/internal/middleware"
)

const (
	DefaultPort           = "8000"
	DefaultPoseModelURL   = "ws://localhost:8001/pose/ws"
	DefaultResultCacheTTL = time.Minute
)

// AppConfig is the HTTP service configuration read from the environment.
type AppConfig struct {
	Port           string
	AllowedOrigins []string
	Reload         bool
	PoseModelURL   string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	ResultCacheTTL time.Duration
	Env            string
}

// LoadAppConfig reads PORT, ALLOWED_ORIGINS, RELOAD, POSE_MODEL_URL,
// REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB, RESULT_CACHE_TTL and APP_ENV.
// Unset values take their defaults; malformed numbers are an error.
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:           getEnv("PORT", DefaultPort),
		AllowedOrigins: middleware.ParseOrigins(os.Getenv("ALLOWED_ORIGINS")),
		Reload:         os.Getenv("RELOAD") == "1",
		PoseModelURL:   getEnv("POSE_MODEL_URL", DefaultPoseModelURL),
		RedisAddress:   os.Getenv("REDIS_ADDRESS"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		ResultCacheTTL: DefaultResultCacheTTL,
		Env:            getEnv("APP_ENV", "development"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return nil, fmt.Errorf("REDIS_DB must be a non-negative integer, got %q", v)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("RESULT_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("RESULT_CACHE_TTL must be a positive duration, got %q", v)
		}
		cfg.ResultCacheTTL = ttl
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("PORT must be a port number, got %q", cfg.Port)
	}

	if !strings.HasPrefix(cfg.PoseModelURL, "ws://") && !strings.HasPrefix(cfg.PoseModelURL, "wss://") {
		return nil, fmt.Errorf("POSE_MODEL_URL must be a ws:// or wss:// URL, got %q", cfg.PoseModelURL)
	}

	return cfg, nil
}

// CacheEnabled reports whether a Redis result cache is configured.
func (c *AppConfig) CacheEnabled() bool {
	return c.RedisAddress != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

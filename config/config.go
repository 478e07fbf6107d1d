// Package config reads process settings from the environment (and a .env file
// in development).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	ServiceToken   string
	AllowedOrigins string
	RedisURL       string
	ProfileSyncURL string
	StreakLookback int
	LogLevel       slog.Level
	R2             R2Config
}

// R2Config is the Cloudflare R2 bucket used for achievement icons
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough is set to talk to R2
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// Load reads .env if present, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		slog.Debug("no .env file, using process environment")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "5200"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServiceToken:   os.Getenv("SERVICE_TOKEN"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ProfileSyncURL: os.Getenv("PROFILE_SYNC_URL"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	lookback, err := strconv.Atoi(getEnv("STREAK_MAX_LOOKBACK_DAYS", "365"))
	if err != nil || lookback < 1 {
		return nil, fmt.Errorf("STREAK_MAX_LOOKBACK_DAYS must be a positive integer, got %q", os.Getenv("STREAK_MAX_LOOKBACK_DAYS"))
	}
	cfg.StreakLookback = lookback

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.ServiceToken == "" {
		return nil, fmt.Errorf("SERVICE_TOKEN is not set")
	}
	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS into the comma list fiber's cors middleware expects
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

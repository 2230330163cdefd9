package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL      string
	DBPingTimeout    time.Duration
	DBConnectMaxWait time.Duration
	Addr             string
	AllowedOrigins   []string
	LogLevel         string
	LogFormat        string

	SpotifyClientID     string
	SpotifyClientSecret string

	AppleMusicKeyID      string
	AppleMusicTeamID     string
	AppleMusicPrivateKey string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	addr := fmt.Sprintf(":%s", envOrDefault("PORT", "8080"))

	origins := parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	return Config{
		DatabaseURL:      dsn,
		DBPingTimeout:    durationOrDefault("DB_PING_TIMEOUT", 5*time.Second),
		DBConnectMaxWait: durationOrDefault("DB_CONNECT_MAX_WAIT", 30*time.Second),
		Addr:             addr,
		AllowedOrigins:   origins,
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),

		AppleMusicKeyID:      os.Getenv("APPLE_MUSIC_KEY_ID"),
		AppleMusicTeamID:     os.Getenv("APPLE_MUSIC_TEAM_ID"),
		AppleMusicPrivateKey: os.Getenv("APPLE_MUSIC_PRIVATE_KEY"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	var origins []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

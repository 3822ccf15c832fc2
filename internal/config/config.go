// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strings"
)

type Config struct {
	ListenAddr string
	DBPath     string // SQLite file path or a postgres:// DSN
	SecretKey  string // signs session cookies, required
	ModernHash bool   // new signups get argon2id digests instead of the legacy pipeline
}

func Load() Config {
	return Config{
		ListenAddr: envOr("NOTES_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:     envOr("NOTES_DB", "notes.sqlite"),
		SecretKey:  os.Getenv("NOTES_SECRET_KEY"),
		ModernHash: boolEnv("NOTES_MODERN_HASH"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "1") || strings.EqualFold(v, "true")
}

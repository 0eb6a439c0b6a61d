// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Env is "development" or "production"; it selects log formatting.
	Env string

	// DBPath is the SQLite database file.
	DBPath string

	// JWTSecret signs access tokens. Required outside development.
	JWTSecret string

	Port       int
	CORSOrigin string
}

// Load reads the environment, after merging a .env file if one exists.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:        getenv("GANTTD_ENV", "development"),
		DBPath:     getenv("GANTTD_DB", "ganttd.db"),
		JWTSecret:  os.Getenv("GANTTD_JWT_SECRET"),
		CORSOrigin: getenv("GANTTD_CORS_ORIGIN", "*"),
	}

	port := getenv("GANTTD_PORT", "8080")
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid GANTTD_PORT %q", port)
	}
	cfg.Port = p

	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return nil, fmt.Errorf("GANTTD_JWT_SECRET is required when GANTTD_ENV=%s", cfg.Env)
		}
		cfg.JWTSecret = "dev-only-insecure-secret"
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package config loads oracle settings from the environment. Credentials and
// endpoints are deliberately never flags: they come from the environment or a
// .env file loaded by the caller.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Chat-completion endpoint settings.
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration

	// Default oracle policy; flags may override it.
	OraclePolicy string
}

func Load() Config {
	return Config{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		BaseURL:      envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:        envOr("OPENAI_MODEL", "gpt-4o-mini"),
		Temperature:  envFloat("LLM_TEMPERATURE", 0),
		Timeout:      envDuration("ORACLE_TIMEOUT", 30*time.Second),
		OraclePolicy: envOr("ORACLE_POLICY", "fallback"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

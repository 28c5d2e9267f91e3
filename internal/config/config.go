// Package config loads the relay CLI settings from RELAY_* environment
// variables, optionally read from a .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the CLI configuration.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	Adapter      string
	MaxRedirects int

	RateLimitRPS     int
	RateLimitBurst   int
	RateLimitPerHost bool

	LogLevel slog.Level
}

// Load reads the configuration from the environment. Values in a .env file
// in the working directory, or in files, fill in variables that are not set.
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)

	return &Config{
		BaseURL:          getenv("RELAY_BASE_URL", ""),
		Timeout:          getenvDuration("RELAY_TIMEOUT", 0),
		UserAgent:        getenv("RELAY_USER_AGENT", "relay-cli/1.0"),
		Adapter:          getenv("RELAY_ADAPTER", ""),
		MaxRedirects:     getenvInt("RELAY_MAX_REDIRECTS", 0),
		RateLimitRPS:     getenvInt("RELAY_RATE_LIMIT_RPS", 0),
		RateLimitBurst:   getenvInt("RELAY_RATE_LIMIT_BURST", 1),
		RateLimitPerHost: getenvBool("RELAY_RATE_LIMIT_PER_HOST", false),
		LogLevel:         getenvLevel("RELAY_LOG_LEVEL", slog.LevelWarn),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("1500ms") and bare milliseconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvLevel(key string, def slog.Level) slog.Level {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(value)); err != nil {
		return def
	}
	return lvl
}

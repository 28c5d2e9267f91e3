package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamwoolhether/relay/internal/config"
	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	t.Setenv("RELAY_BASE_URL", "https://api.example.com")
	t.Setenv("RELAY_TIMEOUT", "1500")
	t.Setenv("RELAY_RATE_LIMIT_RPS", "5")
	t.Setenv("RELAY_RATE_LIMIT_PER_HOST", "yes")
	t.Setenv("RELAY_LOG_LEVEL", "debug")
	t.Setenv("RELAY_MAX_REDIRECTS", "not-a-number")

	got := config.Load(filepath.Join(t.TempDir(), "missing.env"))

	exp := &config.Config{
		BaseURL:          "https://api.example.com",
		Timeout:          1500 * time.Millisecond,
		UserAgent:        "relay-cli/1.0",
		RateLimitRPS:     5,
		RateLimitBurst:   1,
		RateLimitPerHost: true,
		LogLevel:         slog.LevelDebug,
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("config mismatch (-exp +got):\n%s", diff)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "RELAY_TIMEOUT=2s\nRELAY_ADAPTER=http\nRELAY_USER_AGENT=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RELAY_USER_AGENT", "from-env")
	// Unset once the test ends so values loaded from the file do not leak.
	t.Setenv("RELAY_TIMEOUT", "")
	t.Setenv("RELAY_ADAPTER", "")
	os.Unsetenv("RELAY_TIMEOUT")
	os.Unsetenv("RELAY_ADAPTER")

	got := config.Load(path)

	if got.Timeout != 2*time.Second {
		t.Errorf("exp timeout 2s from file, got %v", got.Timeout)
	}
	if got.Adapter != "http" {
		t.Errorf("exp adapter http from file, got %q", got.Adapter)
	}
	if got.UserAgent != "from-env" {
		t.Errorf("exp the environment to win over the file, got %q", got.UserAgent)
	}
}

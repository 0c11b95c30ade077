package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.Backend.BaseURL != "https://api.impresiones-magicas.test" {
		t.Fatalf("unexpected backend base url: %q", cfg.Backend.BaseURL)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}

	if got := cfg.Upload.MaxBytes; got != 5*1024*1024 {
		t.Fatalf("expected 5MiB upload cap, got %d", got)
	}

	if got := cfg.Search.DebounceWindow; got != 300*time.Millisecond {
		t.Fatalf("expected 300ms debounce, got %v", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsNonHTTPBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendBaseURL, "ftp://backend")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http backend url to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvBackendBaseURL, "https://api.impresiones-magicas.test")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	dev := AppConfig{Env: "Development"}
	if !dev.IsDev() || dev.IsProd() {
		t.Fatalf("expected dev helpers to match case-insensitively")
	}
	prod := AppConfig{Env: "PRODUCTION"}
	if !prod.IsProd() || prod.IsDev() {
		t.Fatalf("expected prod helpers to match case-insensitively")
	}
}

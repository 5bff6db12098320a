package config

import (
	"os"
	"testing"
	"time"
)

var allVars = []string{
	"APP_ENV", "PORT", "DB_PATH", "STORAGE_BACKEND", "REDIS_URL", "HISTORY_KEY",
	"CONFIG_KEY", "SESSION_SECRET", "SESSION_IDLE_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv removes prefixed and bare variants so the host environment does
// not leak into Load.
func clearEnv(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, name := range allVars {
		unsetenv(t, EnvPrefix+"_"+name)
		unsetenv(t, name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected dev by default, got %q", cfg.AppEnv)
	}
	if cfg.Port != "8080" || cfg.DBPath != "./dev.db" {
		t.Fatalf("unexpected port/db defaults: %q %q", cfg.Port, cfg.DBPath)
	}
	if cfg.StorageBackend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.StorageBackend)
	}
	if cfg.HistoryKey != "uws-calculator-history" || cfg.ConfigKey != "uws-calculator" {
		t.Fatalf("unexpected storage keys: %q %q", cfg.HistoryKey, cfg.ConfigKey)
	}
	if cfg.SessionIdle != 30*time.Minute {
		t.Fatalf("expected 30m idle timeout, got %v", cfg.SessionIdle)
	}
}

func TestLoad_ReadsPrefixedVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("WINDOWCALC_APP_ENV", "prod")
	t.Setenv("WINDOWCALC_PORT", "9090")
	t.Setenv("WINDOWCALC_STORAGE_BACKEND", "Redis")
	t.Setenv("WINDOWCALC_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("WINDOWCALC_SESSION_SECRET", "s3cret")
	t.Setenv("WINDOWCALC_SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.IsDev() {
		t.Fatal("expected prod environment")
	}
	if cfg.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.StorageBackend != BackendRedis {
		t.Fatalf("expected normalized redis backend, got %q", cfg.StorageBackend)
	}
	if cfg.SessionIdle != 5*time.Minute {
		t.Fatalf("expected 5m idle timeout, got %v", cfg.SessionIdle)
	}
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":     {"WINDOWCALC_STORAGE_BACKEND": "mongo"},
		"redis without url":   {"WINDOWCALC_STORAGE_BACKEND": "redis"},
		"prod without secret": {"WINDOWCALC_APP_ENV": "prod"},
		"bad duration":        {"WINDOWCALC_SESSION_IDLE_TIMEOUT": "soon"},
		"zero idle timeout":   {"WINDOWCALC_SESSION_IDLE_TIMEOUT": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

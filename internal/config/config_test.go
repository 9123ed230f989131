package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigFromEnv_Defaults(t *testing.T) {
	cfg := NewConfigFromEnv()
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("poll interval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("tick interval = %v, want 100ms", cfg.TickInterval)
	}
	if cfg.BaseURL == "" {
		t.Error("base URL default missing")
	}
}

func TestNewConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("LEXIDUEL_BASE_URL", "http://localhost:9000")
	t.Setenv("LEXIDUEL_POLL_INTERVAL", "500ms")
	t.Setenv("LEXIDUEL_TICK_INTERVAL", "50") // bare number is milliseconds
	cfg := NewConfigFromEnv()
	if cfg.BaseURL != "http://localhost:9000" {
		t.Errorf("base URL = %s", cfg.BaseURL)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.TickInterval)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("poll interval = %v, want default", cfg.PollInterval)
	}
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	body := "base_url: http://file.example\npoll_interval: 3s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://file.example" {
		t.Errorf("base URL = %s", cfg.BaseURL)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("poll interval = %v, want 3s", cfg.PollInterval)
	}
}

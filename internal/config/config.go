// Package config holds client settings: env vars with defaults, optionally
// layered over a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexiduel/client/clients/gameclient"
)

// Config holds everything the client binaries need to run.
type Config struct {
	BaseURL        string
	PollInterval   time.Duration
	TickInterval   time.Duration
	RequestTimeout time.Duration
	DataDir        string
}

// fileConfig is the YAML shape; durations are Go duration strings ("2s").
type fileConfig struct {
	BaseURL        string `yaml:"base_url"`
	PollInterval   string `yaml:"poll_interval"`
	TickInterval   string `yaml:"tick_interval"`
	RequestTimeout string `yaml:"request_timeout"`
	DataDir        string `yaml:"data_dir"`
}

// NewConfigFromEnv reads LEXIDUEL_* environment variables (with defaults).
func NewConfigFromEnv() Config {
	return Config{
		BaseURL:        getEnv("LEXIDUEL_BASE_URL", gameclient.DefaultBaseURL),
		PollInterval:   getEnvAsDuration("LEXIDUEL_POLL_INTERVAL", 2*time.Second),
		TickInterval:   getEnvAsDuration("LEXIDUEL_TICK_INTERVAL", 100*time.Millisecond),
		RequestTimeout: getEnvAsDuration("LEXIDUEL_REQUEST_TIMEOUT", 10*time.Second),
		DataDir:        getEnv("LEXIDUEL_DATA_DIR", defaultDataDir()),
	}
}

// Load reads a YAML config file and fills unset fields from the environment.
// A missing file is not an error; env and defaults carry it.
func Load(path string) (Config, error) {
	cfg := NewConfigFromEnv()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if d, err := time.ParseDuration(file.PollInterval); err == nil && d > 0 {
		cfg.PollInterval = d
	}
	if d, err := time.ParseDuration(file.TickInterval); err == nil && d > 0 {
		cfg.TickInterval = d
	}
	if d, err := time.ParseDuration(file.RequestTimeout); err == nil && d > 0 {
		cfg.RequestTimeout = d
	}
	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lexiduel"
	}
	return home + "/.lexiduel"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

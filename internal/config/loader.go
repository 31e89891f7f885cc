package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/stepwise/internal/store"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":5000",
			Mode:         "release",
			CORSOrigins:  []string{"*"},
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{180 * time.Second},
		},
		Log: LogConfig{Mode: "prod", Level: "info"},
		LLM: LLMConfig{
			Provider:  "anthropic",
			MaxTokens: 4000,
			Timeout:   Duration{120 * time.Second},
			Retry:     RetryConfig{MaxAttempts: 1},
		},
	}
}

// LoadEnv loads .env files into the process environment. Missing files
// are skipped; variables already set are not overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the TOML file at path (if any), fills defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults refills fields a file left empty.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = def.Server.Mode
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = def.Server.CORSOrigins
	}
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = def.Log.Mode
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.LLM.Retry.MaxAttempts == 0 {
		cfg.LLM.Retry.MaxAttempts = def.LLM.Retry.MaxAttempts
	}
}

// applyEnv overrides file values with STEPWISE_* variables.
func applyEnv(cfg *Config) error {
	// Later entries win.
	str := []struct {
		name string
		dst  *string
	}{
		{"STEPWISE_ADDR", &cfg.Server.Addr},
		{"STEPWISE_SERVER_MODE", &cfg.Server.Mode},
		{"STEPWISE_DB", &cfg.Store.Path},
		{"STEPWISE_LOG_MODE", &cfg.Log.Mode},
		{"STEPWISE_LOG_LEVEL", &cfg.Log.Level},
		{"STEPWISE_LLM_PROVIDER", &cfg.LLM.Provider},
		{"STEPWISE_PROVIDER", &cfg.LLM.Provider},
		{"STEPWISE_MODEL", &cfg.LLM.Model},
		{"STEPWISE_LLM_BASE_URL", &cfg.LLM.BaseURL},
	}
	for _, e := range str {
		if v := os.Getenv(e.name); v != "" {
			*e.dst = v
		}
	}

	if v := os.Getenv("STEPWISE_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("STEPWISE_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STEPWISE_MAX_TOKENS: %w", err)
		}
		cfg.LLM.MaxTokens = n
	}
	if v := os.Getenv("STEPWISE_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STEPWISE_LLM_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = Duration{d}
	}
	if v := os.Getenv("STEPWISE_LLM_STRUCTURED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STEPWISE_LLM_STRUCTURED: %w", err)
		}
		cfg.LLM.Structured = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DBPath returns the configured database path, falling back to the
// default data directory.
func (c *Config) DBPath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, store.EnsureDir(c.Store.Path)
	}
	return store.DefaultDBPath()
}

// Package config loads stepwise's settings from an optional TOML file,
// .env files and STEPWISE_* environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/stepwise/internal/llm"
	"github.com/abhisek/stepwise/internal/solution"
)

// Config is the complete application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
	LLM    LLMConfig    `toml:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	Mode         string   `toml:"mode"` // release, debug or test
	CORSOrigins  []string `toml:"cors_origins"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// StoreConfig holds the database location.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode  string `toml:"mode"` // prod or dev
	Level string `toml:"level"`
}

// LLMConfig selects and tunes the solution model. API keys never come
// from the file.
type LLMConfig struct {
	Provider    string      `toml:"provider"`
	Model       string      `toml:"model"`
	BaseURL     string      `toml:"base_url"`
	MaxTokens   int         `toml:"max_tokens"`
	Temperature float64     `toml:"temperature"`
	Timeout     Duration    `toml:"timeout"`
	Structured  bool        `toml:"structured"`
	Retry       RetryConfig `toml:"retry"`
}

// RetryConfig bounds provider retries. One attempt means no retry.
type RetryConfig struct {
	MaxAttempts int `toml:"max_attempts"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var (
	serverModes = []string{"release", "debug", "test"}
	logModes    = []string{"prod", "dev"}
	logLevels   = []string{"debug", "info", "warn", "error"}
	providers   = []string{"anthropic", "openai", "gemini", "openrouter", "mock"}
)

// Validate checks ranges and enumerations. It does not check API keys;
// llm.Config.Validate does that when a provider is built.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	if !slices.Contains(serverModes, c.Server.Mode) {
		errs = append(errs, fmt.Sprintf("server.mode must be one of %s", strings.Join(serverModes, ", ")))
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 {
		errs = append(errs, "server timeouts must not be negative")
	}
	if !slices.Contains(logModes, c.Log.Mode) {
		errs = append(errs, fmt.Sprintf("log.mode must be one of %s", strings.Join(logModes, ", ")))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of %s", strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(providers, c.LLM.Provider) {
		errs = append(errs, fmt.Sprintf("llm.provider must be one of %s", strings.Join(providers, ", ")))
	}
	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 64000 {
		errs = append(errs, "llm.max_tokens must be between 1 and 64000")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errs = append(errs, "llm.temperature must be between 0 and 1")
	}
	if c.LLM.Timeout.Duration < 0 {
		errs = append(errs, "llm.timeout must not be negative")
	}
	if c.LLM.Retry.MaxAttempts < 1 || c.LLM.Retry.MaxAttempts > 10 {
		errs = append(errs, "llm.retry.max_attempts must be between 1 and 10")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ProviderConfig builds the llm.Config for the selected provider. Keys
// are taken from the environment.
func (c *Config) ProviderConfig() llm.Config {
	cfg := llm.ConfigFromEnv()
	cfg.Provider = c.LLM.Provider
	cfg.SetModel(c.LLM.Model)
	if c.LLM.BaseURL != "" {
		switch c.LLM.Provider {
		case "openai":
			cfg.OpenAI.BaseURL = c.LLM.BaseURL
		case "openrouter":
			cfg.OpenRouter.BaseURL = c.LLM.BaseURL
		}
	}
	cfg.Retry.MaxAttempts = c.LLM.Retry.MaxAttempts
	cfg.Timeout = c.LLM.Timeout.Duration
	return cfg
}

// GeneratorConfig builds the solution generator settings.
func (c *Config) GeneratorConfig() solution.Config {
	return solution.Config{
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout.Duration,
		Structured:  c.LLM.Structured,
	}
}

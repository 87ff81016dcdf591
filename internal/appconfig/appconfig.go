// internal/appconfig/appconfig.go
// Package appconfig defines the application configuration and the accessor
// methods that apply defaults. The command layer populates it from the config
// file and flags.
package appconfig

import (
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the per-call timeout applied to completion requests.
	defaultRequestTimeout = 60 * time.Second
	// defaultConcurrency caps how many completion calls may be in flight at once.
	defaultConcurrency = 5
	// defaultTemperature is the sampling temperature the engine sends per test call.
	defaultTemperature = 0.5
	// defaultMaxTokens bounds the completion length requested per test call.
	defaultMaxTokens = 1024
	// defaultDatabasePath is where run and result records are stored.
	defaultDatabasePath = "data/schemarena.db"
	// defaultListenAddr is the address the polling HTTP facade binds to.
	defaultListenAddr = "localhost:8085"
)

// Config represents the top-level application configuration.
type Config struct {
	ServiceURL     string   `json:"serviceUrl" mapstructure:"serviceUrl"`
	ServiceAPIKey  string   `json:"serviceApiKey,omitempty" mapstructure:"serviceApiKey"`
	Provider       string   `json:"provider,omitempty" mapstructure:"provider"`
	TimeoutSeconds int      `json:"timeout,omitempty" mapstructure:"timeout"`
	Workers        int      `json:"concurrency,omitempty" mapstructure:"concurrency"`
	Temp           *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokensLimit int      `json:"maxTokens,omitempty" mapstructure:"maxTokens"`
	DatabasePath   string   `json:"database,omitempty" mapstructure:"database"`
	ListenAddr     string   `json:"listen,omitempty" mapstructure:"listen"`
	LogFile        string   `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug          bool     `json:"debug" mapstructure:"debug"`
	ConfigPath     string   `json:"-" mapstructure:"-"`
}

// RequestTimeout returns the per-call timeout for completion requests, falling
// back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Concurrency returns the worker cap for test run dispatch.
func (c Config) Concurrency() int {
	if c.Workers <= 0 {
		return defaultConcurrency
	}
	return c.Workers
}

// Temperature returns the sampling temperature sent with each completion call.
func (c Config) Temperature() float64 {
	if c.Temp == nil {
		return defaultTemperature
	}
	return *c.Temp
}

// MaxTokens returns the completion length limit sent with each completion call.
func (c Config) MaxTokens() int {
	if c.MaxTokensLimit <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokensLimit
}

// ProviderType returns the configured completion provider, defaulting to the
// OpenAI-compatible provider.
func (c Config) ProviderType() string {
	if p := strings.TrimSpace(c.Provider); p != "" {
		return strings.ToLower(p)
	}
	return "openai"
}

// DatabaseFilePath returns the path to the SQLite database, applying a default if not set.
func (c Config) DatabaseFilePath() string {
	if path := strings.TrimSpace(c.DatabasePath); path != "" {
		return path
	}
	return defaultDatabasePath
}

// ListenAddress returns the bind address for the HTTP facade.
func (c Config) ListenAddress() string {
	if addr := strings.TrimSpace(c.ListenAddr); addr != "" {
		return addr
	}
	return defaultListenAddr
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := strings.TrimSpace(c.LogFile); path != "" {
		return path
	}
	return "schemarena.log"
}


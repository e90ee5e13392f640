// Package config holds all deskpilot configuration, loaded from YAML with
// environment-variable overrides for secrets and deploy-specific paths.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all deskpilot configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Context ContextConfig `yaml:"context"`
	Notify  NotifyConfig  `yaml:"notify"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Name:    "deskpilot",
		Version: "1.0.0",
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "",
			Timeout:  "60s",
		},
		Storage: StorageConfig{
			DatabasePath: "deskpilot.db",
		},
		Context: ContextConfig{
			TokenBudget:  6000,
			RecentWindow: 10,
		},
		Notify: NotifyConfig{
			Exchange: "deskpilot.notifications",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides lets the environment win over file values for secrets and
// deployment paths.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DESKPILOT_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("DESKPILOT_AMQP_URL"); v != "" {
		c.Notify.URL = v
	}
	if v := os.Getenv("DESKPILOT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	c.LLM.applyEnvOverrides()
}

// Validate checks the invariants the core depends on.
func (c *Config) Validate() error {
	if c.Context.TokenBudget <= 0 {
		return fmt.Errorf("context.token_budget must be positive, got %d", c.Context.TokenBudget)
	}
	if c.Context.RecentWindow <= 0 {
		return fmt.Errorf("context.recent_window must be positive, got %d", c.Context.RecentWindow)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	return nil
}

// ContextConfig configures the context window manager.
type ContextConfig struct {
	// TokenBudget is the maximum conversation token count before
	// summarization is triggered.
	TokenBudget int `yaml:"token_budget"`
	// RecentWindow is how many trailing messages survive truncation verbatim.
	RecentWindow int `yaml:"recent_window"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// NotifyConfig configures the operator notification publisher. An empty URL
// disables publishing.
type NotifyConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

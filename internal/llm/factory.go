package llm

import (
	"fmt"
	"time"

	"deskpilot/internal/config"
	"deskpilot/internal/types"
)

// Config holds the resolved provider settings.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// FromAppConfig resolves an llm.Config from the application config.
func FromAppConfig(cfg config.LLMConfig) (Config, error) {
	timeout := 60 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid llm timeout %q: %w", cfg.Timeout, err)
		}
		timeout = d
	}
	return Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		Timeout:  timeout,
	}, nil
}

// NewClient builds a completion client for the configured provider.
func NewClient(cfg Config) (types.CompletionClient, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

package config

import "os"

// LLMConfig configures the completion client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// applyEnvOverrides resolves the API key from the environment when the file
// leaves it empty. Provider-specific variables take precedence over the
// generic one.
func (c *LLMConfig) applyEnvOverrides() {
	if v := os.Getenv("DESKPILOT_LLM_PROVIDER"); v != "" {
		c.Provider = v
	}
	if c.APIKey != "" {
		return
	}
	switch c.Provider {
	case "openai":
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("DESKPILOT_API_KEY")
	}
}

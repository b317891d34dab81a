package llm

import "fmt"

// Provider names accepted by NewGenerator.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds the provider settings for building a generator.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// NewGenerator builds the generator for the configured provider.
func NewGenerator(cfg Config) (SQLGenerator, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

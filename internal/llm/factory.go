package llm

import (
	"fmt"

	"github.com/azure/brand-visibility-bot/internal/config"
)

// NewFromConfig builds the provider selected by LLM_PROVIDER
func NewFromConfig(cfg *config.Config) (CompleterInterface, error) {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown language model provider %q", cfg.LLMProvider)
	}
}

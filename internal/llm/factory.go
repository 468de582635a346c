package llm

import (
	"fmt"
	"os"
)

// NewProvider creates an LLM provider. apiKey may be empty, in which case
// the provider's conventional environment variable is consulted.
// Supported provider types: "openrouter", "openai", "anthropic".
func NewProvider(providerType, apiKey, model string) (Provider, error) {
	switch providerType {
	case "openrouter", "":
		if apiKey == "" {
			apiKey = os.Getenv("OPENROUTER_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openrouter: no API key (set OPENROUTER_API_KEY)")
		}
		return NewOpenRouterProvider(apiKey, model), nil

	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai: no API key (set OPENAI_API_KEY)")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "anthropic":
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic: no API key (set ANTHROPIC_API_KEY)")
		}
		return NewAnthropicProvider(apiKey, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

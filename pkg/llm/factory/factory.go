package factory

import (
	"fmt"

	"github.com/SLatz18/thoughtsAI/pkg/llm"
	"github.com/SLatz18/thoughtsAI/pkg/llm/anthropic"
	"github.com/SLatz18/thoughtsAI/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		if modelName == "" {
			modelName = "claude-sonnet-4-20250514" // Default
		}
		return anthropic.NewAnthropicProvider(apiKey, modelName, baseURL), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

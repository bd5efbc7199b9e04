package factory

import (
	"fmt"

	"dealdocs-be/pkg/llm"
	"dealdocs-be/pkg/llm/gemini"
)

func NewLLMProvider(providerType, modelName, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "gemini":
		return gemini.NewProvider(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

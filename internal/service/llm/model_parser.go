package llm

import (
	"fmt"
	"strings"

	domainllm "tenantchat/internal/domain/services/llm"
)

// ModelInfo contains parsed provider and model information
type ModelInfo struct {
	Provider domainllm.ProviderKind
	Model    string // Model identifier for that provider
}

// ParseModel maps a model identifier to its provider variant.
//
// Supported formats:
//   - "gpt-4o-mini" → {Provider: openai, Model: "gpt-4o-mini"}
//   - "gemini-2.0-flash" → {Provider: gemini, Model: "gemini-2.0-flash"}
//   - "lorem-fast" → {Provider: lorem, Model: "lorem-fast"}
//   - "openai/ft:gpt-4o-mini:acme" → {Provider: openai, Model: "ft:gpt-4o-mini:acme"}
//   - "openrouter/openai/gpt-4o" → {Provider: openrouter, Model: "openai/gpt-4o"}
//
// Rules:
//   - If model contains "/" → split on first "/" to extract provider
//   - Else → infer provider from model prefix
func ParseModel(modelStr string) (*ModelInfo, error) {
	modelStr = strings.TrimSpace(modelStr)
	if modelStr == "" {
		return nil, fmt.Errorf("model string cannot be empty")
	}

	if provider, model, ok := strings.Cut(modelStr, "/"); ok {
		if provider == "" {
			return nil, fmt.Errorf("provider cannot be empty in model string: %s", modelStr)
		}
		if model == "" {
			return nil, fmt.Errorf("model cannot be empty in model string: %s", modelStr)
		}

		kind := domainllm.ProviderKind(strings.ToLower(provider))
		if !isKnownProvider(kind) {
			return nil, fmt.Errorf("unsupported provider: %s", provider)
		}
		return &ModelInfo{Provider: kind, Model: model}, nil
	}

	provider := inferProvider(modelStr)
	if provider == "" {
		return nil, fmt.Errorf("unable to infer provider from model: %s", modelStr)
	}

	return &ModelInfo{
		Provider: provider,
		Model:    modelStr,
	}, nil
}

// inferProvider infers the provider from model name prefix
func inferProvider(model string) domainllm.ProviderKind {
	modelLower := strings.ToLower(model)

	for _, prefix := range []string{"gpt-", "o1", "o3", "o4-", "chatgpt-"} {
		if strings.HasPrefix(modelLower, prefix) {
			return domainllm.ProviderOpenAI
		}
	}

	if strings.HasPrefix(modelLower, "gemini-") {
		return domainllm.ProviderGemini
	}

	// Offline provider for development and tests
	if strings.HasPrefix(modelLower, "lorem-") {
		return domainllm.ProviderLorem
	}

	return ""
}

func isKnownProvider(kind domainllm.ProviderKind) bool {
	switch kind {
	case domainllm.ProviderOpenAI, domainllm.ProviderGemini, domainllm.ProviderOpenRouter, domainllm.ProviderLorem:
		return true
	}
	return false
}

package llm

import (
	"fmt"
	"log/slog"

	"tenantchat/internal/capabilities"
	"tenantchat/internal/config"
	domainllm "tenantchat/internal/domain/services/llm"
	"tenantchat/internal/service/llm/adapters"
)

// ProviderFactory creates provider adapter instances
type ProviderFactory struct {
	config       *config.Config
	capabilities *capabilities.Registry
	transcripts  adapters.TranscriptStore
	logger       *slog.Logger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	cfg *config.Config,
	caps *capabilities.Registry,
	transcripts adapters.TranscriptStore,
	logger *slog.Logger,
) *ProviderFactory {
	return &ProviderFactory{
		config:       cfg,
		capabilities: caps,
		transcripts:  transcripts,
		logger:       logger,
	}
}

// GetProvider returns a provider adapter for the given variant
//
// Supported providers:
//   - "openai" - OpenAI chat completions
//   - "gemini" - Gemini through its OpenAI-compatible endpoint
//   - "openrouter" - OpenRouter through meridian-llm-go
//   - "lorem" - Offline provider (no API key required)
func (f *ProviderFactory) GetProvider(kind domainllm.ProviderKind) (domainllm.ModelProvider, error) {
	switch kind {
	case domainllm.ProviderOpenAI:
		return f.createChatCompletionsProvider(kind, f.config.OpenAIAPIKey, "", "OPENAI_API_KEY")

	case domainllm.ProviderGemini:
		return f.createChatCompletionsProvider(kind, f.config.GeminiAPIKey, f.config.GeminiBaseURL, "GEMINI_API_KEY")

	case domainllm.ProviderOpenRouter:
		return f.createOpenRouterProvider()

	case domainllm.ProviderLorem:
		return adapters.NewLoremAdapter(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", kind)
	}
}

func (f *ProviderFactory) createChatCompletionsProvider(kind domainllm.ProviderKind, apiKey, baseURL, envName string) (domainllm.ModelProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", envName)
	}

	policy, err := f.capabilities.ContextPolicy(kind)
	if err != nil {
		return nil, err
	}

	client := adapters.NewOpenAIClient(apiKey, baseURL)
	return adapters.NewChatCompletionsAdapter(kind, policy, client, f.transcripts, config.MaxToolRounds, f.logger), nil
}

func (f *ProviderFactory) createOpenRouterProvider() (domainllm.ModelProvider, error) {
	if f.config.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
	}
	return adapters.NewOpenRouterAdapter(f.config.OpenRouterAPIKey, f.transcripts, config.MaxToolRounds, f.logger)
}

// Available lists the providers that have the credentials they need.
func (f *ProviderFactory) Available() []string {
	var out []string
	if f.config.OpenAIAPIKey != "" {
		out = append(out, string(domainllm.ProviderOpenAI))
	}
	if f.config.GeminiAPIKey != "" {
		out = append(out, string(domainllm.ProviderGemini))
	}
	if f.config.OpenRouterAPIKey != "" {
		out = append(out, string(domainllm.ProviderOpenRouter))
	}
	return append(out, string(domainllm.ProviderLorem))
}

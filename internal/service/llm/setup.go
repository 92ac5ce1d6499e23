package llm

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"tenantchat/internal/capabilities"
	"tenantchat/internal/config"
	"tenantchat/internal/service/llm/adapters"
)

// SetupProviders initializes the provider factory and registry for routing.
// Transcripts live in Redis when a client is given, in memory otherwise.
func SetupProviders(cfg *config.Config, caps *capabilities.Registry, redisClient *redis.Client, logger *slog.Logger) (*ProviderRegistry, error) {
	transcripts := adapters.NewTranscriptStore(redisClient, cfg.TablePrefix, config.ContextRecordTTL)
	factory := NewProviderFactory(cfg, caps, transcripts, logger)

	registry := NewProviderRegistry(factory)
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("provider registry validation failed: %w", err)
	}

	if cfg.OpenAIAPIKey != "" {
		logger.Info("provider available", "name", "openai", "models", "gpt-*, o1*, o3*, o4-*")
	} else {
		logger.Warn("OPENAI_API_KEY not set - OpenAI provider not available")
	}
	if cfg.GeminiAPIKey != "" {
		logger.Info("provider available", "name", "gemini", "models", "gemini-*", "base_url", cfg.GeminiBaseURL)
	} else {
		logger.Warn("GEMINI_API_KEY not set - Gemini provider not available")
	}
	if cfg.OpenRouterAPIKey != "" {
		logger.Info("provider available", "name", "openrouter", "models", "openrouter/<provider>/<model>")
	} else {
		logger.Warn("OPENROUTER_API_KEY not set - OpenRouter provider not available")
	}
	logger.Info("provider available", "name", "lorem", "models", "lorem-*")

	return registry, nil
}

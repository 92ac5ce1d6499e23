package handler

import (
	"log/slog"
	"net/http"

	"tenantchat/internal/capabilities"
	"tenantchat/internal/httputil"
)

// ProviderLister reports which providers have credentials configured.
type ProviderLister interface {
	Available() []string
}

// ModelsHandler handles HTTP requests for model capabilities
type ModelsHandler struct {
	available ProviderLister
	registry  *capabilities.Registry
	logger    *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(available ProviderLister, registry *capabilities.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		available: available,
		registry:  registry,
		logger:    logger,
	}
}

// ProviderResponse represents a provider with its models
type ProviderResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	PersistentContext bool            `json:"persistent_context"`
	Models            []ModelResponse `json:"models"`
}

// ModelResponse represents a model's capabilities for the API response
type ModelResponse struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	Description   string `json:"description,omitempty"`
	ContextWindow int    `json:"context_window"`
	MaxOutput     int    `json:"max_output"`
	ToolCalls     bool   `json:"tool_calls"`
}

// GetCapabilities returns model capabilities for all configured providers
// GET /api/models
func (h *ModelsHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	enabled := make(map[string]bool)
	for _, p := range h.available.Available() {
		enabled[p] = true
	}

	providers := []ProviderResponse{}
	for _, caps := range h.registry.ListProviders() {
		if !enabled[caps.Provider] {
			continue
		}
		providers = append(providers, convertProvider(caps))
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
	})
}

// convertProvider converts capability registry data to API response format
func convertProvider(caps capabilities.ProviderCapabilities) ProviderResponse {
	models := make([]ModelResponse, 0, len(caps.Models))
	for _, m := range caps.Models {
		models = append(models, ModelResponse{
			ID:            m.ID,
			DisplayName:   m.DisplayName,
			Description:   m.Description,
			ContextWindow: m.ContextWindow,
			MaxOutput:     m.MaxOutput,
			ToolCalls:     m.SupportsTools,
		})
	}

	return ProviderResponse{
		ID:                caps.Provider,
		Name:              caps.DisplayName,
		PersistentContext: caps.PersistentContext,
		Models:            models,
	}
}

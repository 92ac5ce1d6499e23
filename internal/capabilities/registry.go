package capabilities

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	domainllm "tenantchat/internal/domain/services/llm"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Providers with an embedded capability file
var knownProviders = []domainllm.ProviderKind{
	domainllm.ProviderOpenAI,
	domainllm.ProviderGemini,
	domainllm.ProviderOpenRouter,
	domainllm.ProviderLorem,
}

// Registry manages model capabilities and context policies across providers
type Registry struct {
	providers map[domainllm.ProviderKind]*ProviderCapabilities
	mu        sync.RWMutex
}

// NewRegistry creates a new capability registry and loads embedded YAML files
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[domainllm.ProviderKind]*ProviderCapabilities),
	}

	for _, provider := range knownProviders {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s capabilities: %w", provider, err)
		}
	}

	return r, nil
}

// loadProviderFile loads a provider's capability YAML file
func (r *Registry) loadProviderFile(provider domainllm.ProviderKind) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if !caps.PersistentContext && caps.ContextSentinel == "" {
		return fmt.Errorf("%s: providers without persistent context need a context_sentinel", filename)
	}

	r.mu.Lock()
	r.providers[provider] = &caps
	r.mu.Unlock()

	return nil
}

// ContextPolicy returns how the provider keeps conversation state
func (r *Registry) ContextPolicy(provider domainllm.ProviderKind) (domainllm.ContextPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.providers[provider]
	if !ok {
		return domainllm.ContextPolicy{}, fmt.Errorf("unknown provider: %s", provider)
	}
	return domainllm.ContextPolicy{
		Persistent: caps.PersistentContext,
		Sentinel:   caps.ContextSentinel,
	}, nil
}

// GetModelCapabilities returns capabilities for a specific model
func (r *Registry) GetModelCapabilities(provider domainllm.ProviderKind, model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	for i := range caps.Models {
		if caps.Models[i].ID == model {
			return &caps.Models[i], nil
		}
	}

	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// ListProviders returns all providers in registration order
func (r *Registry) ListProviders() []ProviderCapabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderCapabilities, 0, len(knownProviders))
	for _, provider := range knownProviders {
		if caps, ok := r.providers[provider]; ok {
			out = append(out, *caps)
		}
	}
	return out
}

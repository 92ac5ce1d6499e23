package llm

import (
	"fmt"
	"sync"

	"tenantchat/internal/domain"
	domainllm "tenantchat/internal/domain/services/llm"
)

// providerSource creates adapters for a provider variant
type providerSource interface {
	GetProvider(kind domainllm.ProviderKind) (domainllm.ModelProvider, error)
}

// ProviderRegistry routes model identifiers to provider adapters.
// Uses ParseModel to extract the provider, then the factory to create instances.
type ProviderRegistry struct {
	factory providerSource
	cache   map[domainllm.ProviderKind]domainllm.ModelProvider
	mu      sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(factory providerSource) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		cache:   make(map[domainllm.ProviderKind]domainllm.ModelProvider),
	}
}

// ForModel returns the adapter serving the given model identifier.
func (r *ProviderRegistry) ForModel(model string) (domainllm.ModelProvider, error) {
	info, err := ParseModel(model)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	return r.GetProvider(info.Provider)
}

// GetProvider returns the cached adapter for a provider, creating it on first use.
func (r *ProviderRegistry) GetProvider(kind domainllm.ProviderKind) (domainllm.ModelProvider, error) {
	if kind == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	r.mu.RLock()
	if cached, exists := r.cache[kind]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock
	if cached, exists := r.cache[kind]; exists {
		return cached, nil
	}

	provider, err := r.factory.GetProvider(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", kind, err)
	}

	r.cache[kind] = provider
	return provider, nil
}

// Validate checks if the factory is properly configured.
func (r *ProviderRegistry) Validate() error {
	if r.factory == nil {
		return fmt.Errorf("provider factory is not configured")
	}
	return nil
}

// Available lists the providers the factory can create.
func (r *ProviderRegistry) Available() []string {
	if lister, ok := r.factory.(interface{ Available() []string }); ok {
		return lister.Available()
	}
	return nil
}

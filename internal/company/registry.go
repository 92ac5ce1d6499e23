package company

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	domainllm "tenantchat/internal/domain/services/llm"
)

// ErrCompanyNotConfigured is returned for short names with no registered capability.
var ErrCompanyNotConfigured = errors.New("company not configured")

// Registry dispatches capability calls to tenants keyed by short name.
type Registry struct {
	mu        sync.RWMutex
	companies map[string]services.CompanyCapability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{companies: make(map[string]services.CompanyCapability)}
}

// Register binds a capability to a short name, replacing any previous binding.
func (r *Registry) Register(shortName string, capability services.CompanyCapability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[shortName] = capability
}

// ShortNames returns the registered tenants in sorted order.
func (r *Registry) ShortNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.companies))
	for name := range r.companies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(shortName string) (services.CompanyCapability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	capability, ok := r.companies[shortName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotConfigured, shortName)
	}
	return capability, nil
}

// Dispatch runs a tenant action.
func (r *Registry) Dispatch(ctx context.Context, companyShortName, action string, params map[string]interface{}) (interface{}, error) {
	capability, err := r.lookup(companyShortName)
	if err != nil {
		return nil, err
	}

	result, err := capability.HandleRequest(ctx, action, params)
	if err != nil {
		return nil, fmt.Errorf("function call %q: %w", action, err)
	}
	return result, nil
}

func (r *Registry) GetCompanyContext(ctx context.Context, companyShortName string) (string, error) {
	capability, err := r.lookup(companyShortName)
	if err != nil {
		return "", err
	}
	return capability.GetCompanyContext(ctx)
}

func (r *Registry) GetUserInfo(ctx context.Context, companyShortName, userIdentifier string) (models.JSONMap, error) {
	capability, err := r.lookup(companyShortName)
	if err != nil {
		return nil, err
	}
	return capability.GetUserInfo(ctx, userIdentifier)
}

func (r *Registry) GetMetadataFromFilename(companyShortName, filename string) (models.JSONMap, error) {
	capability, err := r.lookup(companyShortName)
	if err != nil {
		return nil, err
	}
	return capability.GetMetadataFromFilename(filename)
}

// Tools lists a tenant's model-callable actions; unknown tenants have none.
func (r *Registry) Tools(companyShortName string) []domainllm.ToolDefinition {
	capability, err := r.lookup(companyShortName)
	if err != nil {
		return nil
	}
	return capability.Tools()
}

var _ services.Dispatcher = (*Registry)(nil)

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	domainllm "tenantchat/internal/domain/services/llm"
	"tenantchat/internal/session"
)

// contextPreparer implements the ContextPreparer interface
type contextPreparer struct {
	companies    services.CompanyDirectory
	dispatcher   services.Dispatcher
	store        session.ContextStore
	providers    domainllm.ProviderResolver
	defaultModel string
	logger       *slog.Logger
}

// NewContextPreparer creates a new context preparer
func NewContextPreparer(
	companies services.CompanyDirectory,
	dispatcher services.Dispatcher,
	store session.ContextStore,
	providers domainllm.ProviderResolver,
	defaultModel string,
	logger *slog.Logger,
) services.ContextPreparer {
	return &contextPreparer{
		companies:    companies,
		dispatcher:   dispatcher,
		store:        store,
		providers:    providers,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// PrepareContext reports whether the user's context must be rebuilt. It never writes.
func (s *contextPreparer) PrepareContext(ctx context.Context, companyShortName, userIdentifier string) (*models.ContextPrepResult, error) {
	profile, err := s.companies.Get(ctx, companyShortName)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetRecord(ctx, companyShortName, userIdentifier)
	if err != nil {
		return nil, fmt.Errorf("read session context: %w", err)
	}

	reason := staleReason(record, profile.Config.ContextVersion)
	if reason != "" {
		s.logger.Debug("context rebuild needed",
			"company", companyShortName,
			"user", userIdentifier,
			"reason", reason,
		)
	}

	return &models.ContextPrepResult{RebuildNeeded: reason != ""}, nil
}

func staleReason(record *models.SessionRecord, version string) string {
	switch {
	case record == nil:
		return "no_context"
	case record.LastResponseHandle == "":
		return "no_response_handle"
	case record.Invalidated:
		return "invalidated"
	case record.ContextVersion != version:
		return "version_changed"
	}
	return ""
}

// FinalizeContextRebuild rebuilds the user's context and stores the new handle.
// Dispatcher and provider failures propagate unchanged.
func (s *contextPreparer) FinalizeContextRebuild(ctx context.Context, companyShortName, userIdentifier, model string) (*models.RebuildResult, error) {
	start := time.Now()

	profile, err := s.companies.Get(ctx, companyShortName)
	if err != nil {
		return nil, err
	}

	model = resolveModel(model, profile.Config, s.defaultModel)
	provider, err := s.providers.ForModel(model)
	if err != nil {
		return nil, err
	}

	userInfo, err := s.dispatcher.GetUserInfo(ctx, companyShortName, userIdentifier)
	if err != nil {
		return nil, err
	}
	if userInfo == nil {
		userInfo = models.JSONMap{}
	}

	if err := s.store.SaveUserSessionData(ctx, companyShortName, userIdentifier, userInfo); err != nil {
		return nil, fmt.Errorf("save user session data: %w", err)
	}

	handle, err := s.seed(ctx, provider, companyShortName, model, userInfo)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveLastResponseHandle(ctx, companyShortName, userIdentifier, handle); err != nil {
		return nil, fmt.Errorf("save response handle: %w", err)
	}
	if err := s.store.SaveContextVersion(ctx, companyShortName, userIdentifier, profile.Config.ContextVersion); err != nil {
		return nil, fmt.Errorf("save context version: %w", err)
	}

	s.logger.Info("context rebuilt",
		"company", companyShortName,
		"user", userIdentifier,
		"model", model,
		"provider", provider.Kind(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &models.RebuildResult{ResponseHandle: handle}, nil
}

// seed opens the model-side conversation. Providers without persistent
// context are not called and yield their sentinel.
func (s *contextPreparer) seed(ctx context.Context, provider domainllm.ModelProvider, companyShortName, model string, userInfo models.JSONMap) (string, error) {
	companyContext, err := s.dispatcher.GetCompanyContext(ctx, companyShortName)
	if err != nil {
		return "", err
	}

	policy := provider.ContextPolicy()
	if !policy.Persistent {
		return policy.Sentinel, nil
	}

	instructions, err := buildSystemPrompt(companyContext, userInfo)
	if err != nil {
		return "", err
	}
	return provider.SetCompanyContext(ctx, &domainllm.SeedRequest{Model: model, Instructions: instructions})
}

// InitContext forces a rebuild regardless of the current state.
func (s *contextPreparer) InitContext(ctx context.Context, companyShortName, userIdentifier, model string) (*models.RebuildResult, error) {
	if err := s.store.ClearAllContext(ctx, companyShortName, userIdentifier); err != nil {
		return nil, fmt.Errorf("clear session context: %w", err)
	}

	prep, err := s.PrepareContext(ctx, companyShortName, userIdentifier)
	if err != nil {
		return nil, err
	}
	if !prep.RebuildNeeded {
		// Another request rebuilt the context between clear and prepare
		handle, err := s.store.GetLastResponseHandle(ctx, companyShortName, userIdentifier)
		if err != nil {
			return nil, err
		}
		return &models.RebuildResult{ResponseHandle: handle}, nil
	}

	return s.FinalizeContextRebuild(ctx, companyShortName, userIdentifier, model)
}

// resolveModel picks the request model, then the company default, then the global default.
func resolveModel(requested string, cfg *models.CompanyConfig, fallback string) string {
	if requested != "" {
		return requested
	}
	if cfg != nil && cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return fallback
}

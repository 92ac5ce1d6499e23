package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tenantchat/internal/config"
	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	domainllm "tenantchat/internal/domain/services/llm"
	"tenantchat/internal/service/chat/convert"
	"tenantchat/internal/session"
)

// queryExecutor implements the QueryExecutor interface
type queryExecutor struct {
	companies    services.CompanyDirectory
	dispatcher   services.Dispatcher
	store        session.ContextStore
	providers    domainllm.ProviderResolver
	converters   *convert.Registry
	defaultModel string
	logger       *slog.Logger
}

// NewQueryExecutor creates a new query executor
func NewQueryExecutor(
	companies services.CompanyDirectory,
	dispatcher services.Dispatcher,
	store session.ContextStore,
	providers domainllm.ProviderResolver,
	defaultModel string,
	logger *slog.Logger,
) services.QueryExecutor {
	return &queryExecutor{
		companies:    companies,
		dispatcher:   dispatcher,
		store:        store,
		providers:    providers,
		converters:   convert.NewRegistry(),
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// LLMQuery runs one turn. Expected business failures come back as a typed
// result; a missing response handle is a *domain.ContextIntegrityError.
func (s *queryExecutor) LLMQuery(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	start := time.Now()
	company := req.CompanyShortName

	profile, err := s.companies.Get(ctx, company)
	if errors.Is(err, domain.ErrNotFound) {
		return models.QueryFailure(models.QueryErrorCompanyNotFound, fmt.Sprintf("company %q not found", company)), nil
	}
	if err != nil {
		return nil, err
	}

	user := resolveUserIdentifier(req)
	if user == "" {
		return models.QueryFailure(models.QueryErrorMissingIdentity, "provide external_user_id or log in"), nil
	}
	if len(user) > config.MaxUserIdentifierLength {
		return models.QueryFailure(models.QueryErrorMissingIdentity, "user identifier is too long"), nil
	}

	question := strings.TrimSpace(req.Question)
	promptName := strings.TrimSpace(req.PromptName)
	if question == "" && promptName == "" {
		return models.QueryFailure(models.QueryErrorMissingInput, "ask a question or choose a prompt"), nil
	}
	if len(question) > config.MaxQuestionLength {
		return models.QueryFailure(models.QueryErrorMissingInput, fmt.Sprintf("question exceeds %d characters", config.MaxQuestionLength)), nil
	}

	var prompt *models.PromptTemplate
	if promptName != "" {
		if prompt = profile.Config.Prompt(promptName); prompt == nil {
			return models.QueryFailure(models.QueryErrorPromptNotFound, fmt.Sprintf("prompt %q not found", promptName)), nil
		}
	}

	stored, err := s.store.GetUserSessionData(ctx, company, user)
	if err != nil {
		return nil, fmt.Errorf("read user session data: %w", err)
	}
	merged := mergeData(stored, req.ClientData)

	handle, err := s.store.GetLastResponseHandle(ctx, company, user)
	if err != nil {
		return nil, fmt.Errorf("read response handle: %w", err)
	}
	if handle == "" {
		s.logger.Error("query without initialized context", "company", company, "user", user)
		return nil, &domain.ContextIntegrityError{CompanyShortName: company, UserIdentifier: user}
	}

	input := question
	if prompt != nil {
		input, err = buildPromptPayload(prompt, merged, user)
		if err != nil {
			return nil, err
		}
	}

	attachments, err := decodeAttachments(ctx, s.converters, req.Files, func(filename string) (models.JSONMap, error) {
		return s.dispatcher.GetMetadataFromFilename(company, filename)
	})
	if err != nil {
		return models.QueryFailure(models.QueryErrorMissingInput, err.Error()), nil
	}
	input += attachments

	model := resolveModel(req.Model, profile.Config, s.defaultModel)
	provider, err := s.providers.ForModel(model)
	if err != nil {
		return nil, err
	}

	invokeReq := &domainllm.InvokeRequest{
		Model:              model,
		PreviousResponseID: handle,
		Input:              input,
		Tools:              s.dispatcher.Tools(company),
		CallTool:           s.toolCaller(company),
	}

	// Providers without persistent context get the system prompt on the first turn
	if policy := provider.ContextPolicy(); !policy.Persistent && handle == policy.Sentinel {
		invokeReq.Instructions, err = s.instructions(ctx, company, stored)
		if err != nil {
			return nil, err
		}
	}

	resp, err := provider.Invoke(ctx, invokeReq)
	if errors.Is(err, domainllm.ErrUnknownResponse) {
		if err := s.store.Invalidate(ctx, company, user); err != nil {
			return nil, fmt.Errorf("invalidate session context: %w", err)
		}
		s.logger.Warn("response handle expired", "company", company, "user", user, "model", model)
		return models.QueryFailure(models.QueryErrorMissingContext, "conversation context expired, log in again"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", model, err)
	}

	if err := s.store.SaveLastResponseHandle(ctx, company, user, resp.ResponseID); err != nil {
		return nil, fmt.Errorf("save response handle: %w", err)
	}

	s.logger.Info("query answered",
		"company", company,
		"user", user,
		"model", model,
		"prompt", promptName,
		"files", len(req.Files),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &models.QueryResult{
		Valid:          true,
		Answer:         resp.Answer,
		AdditionalData: models.JSONMap(resp.AdditionalData),
		ResponseID:     resp.ResponseID,
	}, nil
}

func (s *queryExecutor) instructions(ctx context.Context, company string, userData models.JSONMap) (string, error) {
	companyContext, err := s.dispatcher.GetCompanyContext(ctx, company)
	if err != nil {
		return "", err
	}
	return buildSystemPrompt(companyContext, userData)
}

// toolCaller routes model function calls to the company's actions.
func (s *queryExecutor) toolCaller(company string) domainllm.ToolCaller {
	return func(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
		params := make(map[string]interface{})
		if len(arguments) > 0 {
			if err := json.Unmarshal(arguments, &params); err != nil {
				return "", fmt.Errorf("decode arguments for %s: %w", name, err)
			}
		}

		result, err := s.dispatcher.Dispatch(ctx, company, name, params)
		if err != nil {
			return "", err
		}

		out, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("encode result of %s: %w", name, err)
		}
		return string(out), nil
	}
}

// resolveUserIdentifier prefers the external id, then the local user convention.
func resolveUserIdentifier(req *models.QueryRequest) string {
	if id := strings.TrimSpace(req.ExternalUserID); id != "" {
		return id
	}
	if req.LocalUserID > 0 {
		return models.LocalUserIdentifier(req.LocalUserID)
	}
	return ""
}

// mergeData overlays request data on stored session data. Request keys win.
func mergeData(stored, request models.JSONMap) models.JSONMap {
	merged := stored.Clone()
	for k, v := range request {
		merged[k] = v
	}
	return merged
}

func buildPromptPayload(prompt *models.PromptTemplate, merged models.JSONMap, user string) (string, error) {
	data := merged.Clone()
	data["user_id"] = user

	content, err := renderPrompt(prompt, data)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"prompt":  prompt.Name,
		"data":    data,
		"content": content,
	})
	if err != nil {
		return "", fmt.Errorf("encode prompt payload: %w", err)
	}
	return string(payload), nil
}

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	domainllm "tenantchat/internal/domain/services/llm"
	"tenantchat/internal/session"
)

type mockDirectory struct {
	configs map[string]*models.CompanyConfig
}

func (m *mockDirectory) Get(ctx context.Context, shortName string) (*services.CompanyProfile, error) {
	cfg, ok := m.configs[shortName]
	if !ok {
		return nil, &domain.NotFoundError{Message: "company not found"}
	}
	return &services.CompanyProfile{Company: &models.Company{ID: 1, ShortName: shortName, Active: true}, Config: cfg}, nil
}

type mockDispatcher struct {
	userInfo    models.JSONMap
	userInfoErr error
	context     string
	dispatched  []string
	tools       []domainllm.ToolDefinition
}

func (m *mockDispatcher) Dispatch(ctx context.Context, company, action string, params map[string]interface{}) (interface{}, error) {
	m.dispatched = append(m.dispatched, action)
	return map[string]interface{}{"rows": 3}, nil
}

func (m *mockDispatcher) GetCompanyContext(ctx context.Context, company string) (string, error) {
	return m.context, nil
}

func (m *mockDispatcher) GetUserInfo(ctx context.Context, company, user string) (models.JSONMap, error) {
	if m.userInfoErr != nil {
		return nil, m.userInfoErr
	}
	return m.userInfo.Clone(), nil
}

func (m *mockDispatcher) GetMetadataFromFilename(company, filename string) (models.JSONMap, error) {
	return models.JSONMap{"document_type": "invoice"}, nil
}

func (m *mockDispatcher) Tools(company string) []domainllm.ToolDefinition {
	return m.tools
}

type mockProvider struct {
	kind        domainllm.ProviderKind
	policy      domainllm.ContextPolicy
	seeds       []*domainllm.SeedRequest
	invocations []*domainllm.InvokeRequest
	invokeErr   error
	toolCall    string // tool name invoked during Invoke
	toolResult  string
}

func (m *mockProvider) Kind() domainllm.ProviderKind           { return m.kind }
func (m *mockProvider) ContextPolicy() domainllm.ContextPolicy { return m.policy }

func (m *mockProvider) SetCompanyContext(ctx context.Context, req *domainllm.SeedRequest) (string, error) {
	m.seeds = append(m.seeds, req)
	return "resp_seed", nil
}

func (m *mockProvider) Invoke(ctx context.Context, req *domainllm.InvokeRequest) (*domainllm.InvokeResponse, error) {
	m.invocations = append(m.invocations, req)
	if m.invokeErr != nil {
		return nil, m.invokeErr
	}
	if m.toolCall != "" {
		out, err := req.CallTool(ctx, m.toolCall, json.RawMessage(`{"query":"select 1"}`))
		if err != nil {
			return nil, err
		}
		m.toolResult = out
	}
	return &domainllm.InvokeResponse{
		ResponseID:     "resp_next",
		Answer:         "answer",
		AdditionalData: map[string]interface{}{"chart": "bar"},
	}, nil
}

type mockResolver struct {
	providers map[string]*mockProvider
}

func (m *mockResolver) ForModel(model string) (domainllm.ModelProvider, error) {
	p, ok := m.providers[model]
	if !ok {
		return nil, errors.New("unsupported model " + model)
	}
	return p, nil
}

type fixture struct {
	store      session.ContextStore
	dispatcher *mockDispatcher
	openai     *mockProvider
	gemini     *mockProvider
	preparer   services.ContextPreparer
	executor   services.QueryExecutor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := session.NewContextStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatal(err)
	}

	directory := &mockDirectory{configs: map[string]*models.CompanyConfig{
		"acme": {
			ShortName:      "acme",
			Name:           "Acme",
			ContextVersion: "v1",
			Prompts: []models.PromptTemplate{
				{Name: "portfolio", Template: "Analyze the portfolio of {{.name}} ({{.role}})"},
			},
		},
	}}
	dispatcher := &mockDispatcher{
		userInfo: models.JSONMap{"role": "lead", "name": "A"},
		context:  "Acme sells anvils.",
	}
	openai := &mockProvider{kind: domainllm.ProviderOpenAI, policy: domainllm.ContextPolicy{Persistent: true}}
	gemini := &mockProvider{kind: domainllm.ProviderGemini, policy: domainllm.ContextPolicy{Sentinel: "gemini-context-initialized"}}
	resolver := &mockResolver{providers: map[string]*mockProvider{
		"gpt-4o-mini":      openai,
		"gemini-2.0-flash": gemini,
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		openai:     openai,
		gemini:     gemini,
		preparer:   NewContextPreparer(directory, dispatcher, store, resolver, "gpt-4o-mini", logger),
		executor:   NewQueryExecutor(directory, dispatcher, store, resolver, "gpt-4o-mini", logger),
	}
}

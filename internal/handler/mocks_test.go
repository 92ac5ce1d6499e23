package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tenantchat/internal/capabilities"
	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	"tenantchat/internal/middleware"
	"tenantchat/internal/session"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var acmeConfig = &models.CompanyConfig{
	ShortName: "acme",
	Name:      "Acme Corp",
	Onboarding: []models.OnboardingCard{
		{Title: "Ask about orders", Text: "Totals, trends and top customers."},
	},
	Prompts: []models.PromptTemplate{
		{Name: "portfolio", Description: "Portfolio review", Template: "Review {{.name}}"},
	},
}

type mockDirectory struct{}

func (mockDirectory) Get(ctx context.Context, shortName string) (*services.CompanyProfile, error) {
	if shortName != "acme" {
		return nil, &domain.NotFoundError{Message: "company not found: " + shortName}
	}
	return &services.CompanyProfile{
		Company: &models.Company{ID: 1, ShortName: "acme", Name: "Acme Corp", Active: true},
		Config:  acmeConfig,
	}, nil
}

type mockResolver struct {
	claim  models.IdentityClaim
	login  models.AuthOutcome
	redeem models.AuthOutcome

	externalErr    error
	externalUser   string
	loggedOut      *models.WebSession
	redeemedTokens []string
}

func (m *mockResolver) Verify(r *http.Request) models.IdentityClaim { return m.claim }

func (m *mockResolver) LoginLocalUser(ctx context.Context, w http.ResponseWriter, r *http.Request, company, email, password string) models.AuthOutcome {
	return m.login
}

func (m *mockResolver) RedeemTokenForSession(ctx context.Context, w http.ResponseWriter, r *http.Request, company, token string) models.AuthOutcome {
	m.redeemedTokens = append(m.redeemedTokens, token)
	return m.redeem
}

func (m *mockResolver) StartExternalSession(ctx context.Context, w http.ResponseWriter, r *http.Request, company, user string) error {
	m.externalUser = user
	return m.externalErr
}

func (m *mockResolver) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.WebSession, error) {
	return m.loggedOut, nil
}

type mockTokens struct{}

func (mockTokens) GenerateChatJWT(company, user string, expiresIn int64) (string, error) {
	return "tok-" + user, nil
}

func (mockTokens) ValidateChatJWT(token string) *models.ChatClaims { return nil }

type mockPreparer struct {
	rebuildNeeded bool
	finalizeErr   error
	finalized     []string
	initUser      string
}

func (m *mockPreparer) PrepareContext(ctx context.Context, company, user string) (*models.ContextPrepResult, error) {
	return &models.ContextPrepResult{RebuildNeeded: m.rebuildNeeded}, nil
}

func (m *mockPreparer) FinalizeContextRebuild(ctx context.Context, company, user, model string) (*models.RebuildResult, error) {
	if m.finalizeErr != nil {
		return nil, m.finalizeErr
	}
	m.finalized = append(m.finalized, user)
	return &models.RebuildResult{ResponseHandle: "resp_1"}, nil
}

func (m *mockPreparer) InitContext(ctx context.Context, company, user, model string) (*models.RebuildResult, error) {
	m.initUser = user
	return &models.RebuildResult{ResponseHandle: "resp_init"}, nil
}

type mockExecutor struct {
	result *models.QueryResult
	err    error
	got    *models.QueryRequest
}

func (m *mockExecutor) LLMQuery(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error) {
	m.got = req
	return m.result, m.err
}

type fixture struct {
	mux      *http.ServeMux
	resolver *mockResolver
	preparer *mockPreparer
	executor *mockExecutor
	contexts session.ContextStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	renderer, err := NewRenderer(discardLogger)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	contexts, err := session.NewContextStore(session.StoreTypeMemory)
	if err != nil {
		t.Fatalf("NewContextStore() error = %v", err)
	}
	caps, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("capabilities.NewRegistry() error = %v", err)
	}

	f := &fixture{
		mux:      http.NewServeMux(),
		resolver: &mockResolver{},
		preparer: &mockPreparer{},
		executor: &mockExecutor{},
		contexts: contexts,
	}
	router := NewLoginRouter(renderer, "https://chat.example.com/", discardLogger)
	Register(f.mux, Handlers{
		Auth:   NewAuthHandler(mockDirectory{}, f.resolver, mockTokens{}, f.preparer, contexts, router, renderer, discardLogger),
		Chat:   NewChatHandler(mockDirectory{}, f.resolver, f.preparer, f.executor, router, renderer, discardLogger),
		Models: NewModelsHandler(staticProviders{"lorem"}, caps, discardLogger),
		Health: NewHealthHandler(nil, discardLogger),
	}, middleware.RequireIdentity(f.resolver))
	return f
}

func (f *fixture) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

type staticProviders []string

func (s staticProviders) Available() []string { return s }

func webSession(user string) models.IdentityClaim {
	return models.IdentityClaim{
		Success:          true,
		UserIdentifier:   user,
		CompanyShortName: "acme",
		AuthType:         models.AuthTypeWebSession,
	}
}

func apiKeyClaim(company string) models.IdentityClaim {
	return models.IdentityClaim{Success: true, CompanyShortName: company, AuthType: models.AuthTypeAPIKey}
}

func authFailure(message string) models.IdentityClaim {
	return models.IdentityClaim{
		StatusCode:   http.StatusUnauthorized,
		ReasonCode:   models.ReasonAPIKeyInvalid,
		ErrorMessage: message,
	}
}

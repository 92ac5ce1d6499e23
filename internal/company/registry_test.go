package company

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"tenantchat/internal/domain/models"
	domainllm "tenantchat/internal/domain/services/llm"
)

type failingCapability struct{}

func (failingCapability) HandleRequest(ctx context.Context, action string, params map[string]interface{}) (interface{}, error) {
	return nil, errors.New("backend down")
}
func (failingCapability) GetCompanyContext(ctx context.Context) (string, error) { return "ctx", nil }
func (failingCapability) GetUserInfo(ctx context.Context, user string) (models.JSONMap, error) {
	return models.JSONMap{"user": user}, nil
}
func (failingCapability) GetMetadataFromFilename(filename string) (models.JSONMap, error) {
	return models.JSONMap{}, nil
}
func (failingCapability) Tools() []domainllm.ToolDefinition { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	r.Register("acme", failingCapability{})
	ctx := context.Background()

	_, err := r.Dispatch(ctx, "globex", "anything", nil)
	if !errors.Is(err, ErrCompanyNotConfigured) {
		t.Errorf("Dispatch() unknown company error = %v, want ErrCompanyNotConfigured", err)
	}

	_, err = r.Dispatch(ctx, "acme", "sql_query", nil)
	if err == nil || err.Error() != `function call "sql_query": backend down` {
		t.Errorf("Dispatch() error = %v", err)
	}

	info, err := r.GetUserInfo(ctx, "acme", "u1")
	if err != nil || info["user"] != "u1" {
		t.Errorf("GetUserInfo() = %v, %v", info, err)
	}
	if _, err := r.GetCompanyContext(ctx, "globex"); !errors.Is(err, ErrCompanyNotConfigured) {
		t.Errorf("GetCompanyContext() error = %v", err)
	}
	if tools := r.Tools("globex"); tools != nil {
		t.Errorf("Tools() for unknown company = %v", tools)
	}
	if names := r.ShortNames(); len(names) != 1 || names[0] != "acme" {
		t.Errorf("ShortNames() = %v", names)
	}
}

func TestBuild_Variants(t *testing.T) {
	configs := []*models.CompanyConfig{
		{ShortName: "acme", Name: "Acme", Variant: VariantConfigured, UserDefaults: models.JSONMap{"role": "member"}},
		{ShortName: "sample", Name: "Sample", Variant: VariantSample},
		{
			ShortName:  "globex",
			Name:       "Globex",
			Variant:    VariantConfigured,
			SQLSources: []models.SQLSourceConfig{{Name: "sales", Driver: DriverSQLite, DSNEnv: "TENANTCHAT_TEST_UNSET_DSN"}},
			Documents:  &models.DocumentsConfig{Collection: "globex_docs"},
		},
	}

	registry, closers := Build(context.Background(), configs, BuildOptions{Logger: discardLogger()})
	if len(closers) != 0 {
		t.Errorf("closers = %d, want 0 for unavailable sources", len(closers))
	}
	ctx := context.Background()

	info, err := registry.GetUserInfo(ctx, "acme", "User_9")
	if err != nil {
		t.Fatal(err)
	}
	if info["role"] != "member" || info["user_identifier"] != "User_9" {
		t.Errorf("configured user info = %v", info)
	}

	info, err = registry.GetUserInfo(ctx, "sample", "User_1")
	if err != nil {
		t.Fatal(err)
	}
	if info["role"] != "admin" {
		t.Errorf("sample known user role = %v, want admin", info["role"])
	}

	info, _ = registry.GetUserInfo(ctx, "sample", "stranger")
	if info["role"] != "guest" {
		t.Errorf("sample unknown user role = %v, want guest", info["role"])
	}

	// Neither the SQL source nor document search is reachable
	if tools := registry.Tools("globex"); len(tools) != 0 {
		t.Errorf("Tools() = %v, want none", tools)
	}
	if _, err := registry.Dispatch(ctx, "globex", ActionSQLQuery, nil); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Dispatch() error = %v, want ErrUnknownAction", err)
	}
}

package llm

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"tenantchat/internal/capabilities"
	"tenantchat/internal/config"
	domainllm "tenantchat/internal/domain/services/llm"
	"tenantchat/internal/service/llm/adapters"
)

func newTestFactory(t *testing.T, cfg *config.Config) *ProviderFactory {
	t.Helper()
	caps, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProviderFactory(cfg, caps, adapters.NewTranscriptStore(nil, "", time.Hour), logger)
}

func TestProviderFactory_OpenRouter(t *testing.T) {
	f := newTestFactory(t, &config.Config{})
	if _, err := f.GetProvider(domainllm.ProviderOpenRouter); err == nil {
		t.Error("expected error without OPENROUTER_API_KEY")
	}
	for _, p := range f.Available() {
		if p == string(domainllm.ProviderOpenRouter) {
			t.Error("openrouter listed as available without a key")
		}
	}

	f = newTestFactory(t, &config.Config{OpenRouterAPIKey: "sk-or-test"})
	p, err := f.GetProvider(domainllm.ProviderOpenRouter)
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	if p.Kind() != domainllm.ProviderOpenRouter || !p.ContextPolicy().Persistent {
		t.Errorf("provider = %v %+v", p.Kind(), p.ContextPolicy())
	}

	got := f.Available()
	want := []string{"openrouter", "lorem"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

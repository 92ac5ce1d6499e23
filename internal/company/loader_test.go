package company

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const acmeYAML = `
short_name: acme
name: Acme Corp
default_model: gpt-4o-mini
context_version: "2"
instructions: |
  You answer questions about Acme's sales.
branding:
  primary_color: "#c00"
onboarding_cards:
  - icon: chart
    title: Sales
    text: Ask about last quarter
prompts:
  - name: weekly_summary
    description: Weekly summary
    template: "Summarize the week for {{.name}}"
filename_rules:
  - prefix: inv_
    document_type: invoice
user_defaults:
  role: member
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acme.yaml", acmeYAML)
	writeFile(t, dir, "sample.yml", "short_name: sample\nvariant: sample\n")
	writeFile(t, dir, "README.md", "not a company")

	configs, err := LoadConfigs(dir)
	if err != nil {
		t.Fatalf("LoadConfigs() error = %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("len(configs) = %d, want 2", len(configs))
	}

	acme := configs[0]
	if acme.ShortName != "acme" || acme.Variant != VariantConfigured || acme.ContextVersion != "2" {
		t.Errorf("acme = %+v", acme)
	}
	if p := acme.Prompt("weekly_summary"); p == nil || !strings.Contains(p.Template, "{{.name}}") {
		t.Errorf("Prompt(weekly_summary) = %+v", p)
	}
	if acme.Prompt("missing") != nil {
		t.Error("Prompt(missing) should be nil")
	}
	if len(acme.Onboarding) != 1 || acme.Onboarding[0].Title != "Sales" {
		t.Errorf("onboarding = %+v", acme.Onboarding)
	}

	sample := configs[1]
	if sample.Name != "sample" || sample.Variant != VariantSample {
		t.Errorf("sample defaults not applied: %+v", sample)
	}
}

func TestLoadConfigs_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "bad short name",
			files:   map[string]string{"a.yaml": "short_name: Acme Corp\n"},
			wantErr: "invalid short_name",
		},
		{
			name:    "unknown variant",
			files:   map[string]string{"a.yaml": "short_name: acme\nvariant: plugin\n"},
			wantErr: "unknown variant",
		},
		{
			name: "duplicate short name",
			files: map[string]string{
				"a.yaml": "short_name: acme\n",
				"b.yaml": "short_name: acme\n",
			},
			wantErr: "already defined",
		},
		{
			name:    "unsupported driver",
			files:   map[string]string{"a.yaml": "short_name: acme\nsql_sources:\n  - name: s\n    driver: mysql\n    dsn_env: X\n"},
			wantErr: "unsupported driver",
		},
		{
			name:    "documents without collection",
			files:   map[string]string{"a.yaml": "short_name: acme\ndocuments:\n  limit: 3\n"},
			wantErr: "documents.collection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, err := LoadConfigs(dir)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfigs() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

package models

// CompanyConfig is the per-tenant configuration loaded from YAML.
type CompanyConfig struct {
	ShortName      string            `yaml:"short_name"`
	Name           string            `yaml:"name"`
	Variant        string            `yaml:"variant"`
	DefaultModel   string            `yaml:"default_model"`
	ContextVersion string            `yaml:"context_version"`
	Instructions   string            `yaml:"instructions"`
	Branding       Branding          `yaml:"branding"`
	Onboarding     []OnboardingCard  `yaml:"onboarding_cards"`
	Prompts        []PromptTemplate  `yaml:"prompts"`
	SQLSources     []SQLSourceConfig `yaml:"sql_sources"`
	Documents      *DocumentsConfig  `yaml:"documents"`
	FilenameRules  []FilenameRule    `yaml:"filename_rules"`
	UserDefaults   JSONMap           `yaml:"user_defaults"`
}

// Prompt returns the named prompt template, or nil.
func (c *CompanyConfig) Prompt(name string) *PromptTemplate {
	for i := range c.Prompts {
		if c.Prompts[i].Name == name {
			return &c.Prompts[i]
		}
	}
	return nil
}

type Branding struct {
	PrimaryColor string `yaml:"primary_color"`
	LogoURL      string `yaml:"logo_url"`
	Tagline      string `yaml:"tagline"`
}

type OnboardingCard struct {
	Icon  string `yaml:"icon"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type PromptTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// SQLSourceConfig points at a tenant database. The DSN is read from the
// environment variable named by DSNEnv so secrets stay out of YAML.
type SQLSourceConfig struct {
	Name        string   `yaml:"name"`
	Driver      string   `yaml:"driver"` // "sqlite" or "pgx"
	DSNEnv      string   `yaml:"dsn_env"`
	Description string   `yaml:"description"`
	Tables      []string `yaml:"tables"` // Empty means all tables
}

type DocumentsConfig struct {
	Collection  string `yaml:"collection"`
	Description string `yaml:"description"`
	Limit       int    `yaml:"limit"`
}

// FilenameRule maps a filename prefix to a document type.
type FilenameRule struct {
	Prefix       string `yaml:"prefix"`
	DocumentType string `yaml:"document_type"`
}

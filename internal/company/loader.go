package company

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"tenantchat/internal/domain/models"
)

var shortNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Variants
const (
	VariantConfigured = "configured"
	VariantSample     = "sample"
)

// LoadConfigs reads every *.yaml / *.yml file in dir, sorted by filename.
func LoadConfigs(dir string) ([]*models.CompanyConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read companies dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	configs := make([]*models.CompanyConfig, 0, len(files))
	for _, path := range files {
		cfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[cfg.ShortName]; ok {
			return nil, fmt.Errorf("%s: short name %q already defined in %s", path, cfg.ShortName, prev)
		}
		seen[cfg.ShortName] = path
		configs = append(configs, cfg)
	}
	return configs, nil
}

// LoadConfigFile parses and validates a single company file.
func LoadConfigFile(path string) (*models.CompanyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg models.CompanyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func validateConfig(cfg *models.CompanyConfig) error {
	if !shortNamePattern.MatchString(cfg.ShortName) {
		return fmt.Errorf("invalid short_name %q", cfg.ShortName)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ShortName
	}
	switch cfg.Variant {
	case "":
		cfg.Variant = VariantConfigured
	case VariantConfigured, VariantSample:
	default:
		return fmt.Errorf("unknown variant %q", cfg.Variant)
	}

	prompts := make(map[string]bool)
	for _, p := range cfg.Prompts {
		if p.Name == "" || p.Template == "" {
			return fmt.Errorf("prompts need a name and a template")
		}
		if prompts[p.Name] {
			return fmt.Errorf("duplicate prompt %q", p.Name)
		}
		prompts[p.Name] = true
	}

	sources := make(map[string]bool)
	for _, s := range cfg.SQLSources {
		if s.Name == "" || s.DSNEnv == "" {
			return fmt.Errorf("sql_sources need a name and a dsn_env")
		}
		if s.Driver != DriverSQLite && s.Driver != DriverPostgres {
			return fmt.Errorf("sql source %q: unsupported driver %q", s.Name, s.Driver)
		}
		if sources[s.Name] {
			return fmt.Errorf("duplicate sql source %q", s.Name)
		}
		sources[s.Name] = true
	}

	if cfg.Documents != nil && cfg.Documents.Collection == "" {
		return fmt.Errorf("documents.collection is required")
	}
	return nil
}

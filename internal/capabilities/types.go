package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities represents the metadata for a specific model
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName   string `yaml:"display_name" json:"display_name"`
	Description   string `yaml:"description" json:"description"`
	SupportsTools bool   `yaml:"supports_tools" json:"supports_tools"`
	ContextWindow int    `yaml:"context_window" json:"context_window"`
	MaxOutput     int    `yaml:"max_output" json:"max_output"`
}

// ProviderCapabilities represents a provider, its context policy and its models
type ProviderCapabilities struct {
	Provider    string `yaml:"provider" json:"provider"`
	DisplayName string `yaml:"display_name" json:"display_name"`

	// PersistentContext is false for providers that cannot hold a seeded
	// conversation server-side. ContextSentinel then stands in for the handle.
	PersistentContext bool   `yaml:"persistent_context" json:"persistent_context"`
	ContextSentinel   string `yaml:"context_sentinel" json:"context_sentinel,omitempty"`

	Models []ModelCapabilities `yaml:"-" json:"models"` // Ordered as in YAML
}

// UnmarshalYAML preserves model order from the YAML mapping
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		Provider          string                       `yaml:"provider"`
		DisplayName       string                       `yaml:"display_name"`
		PersistentContext bool                         `yaml:"persistent_context"`
		ContextSentinel   string                       `yaml:"context_sentinel"`
		Models            map[string]ModelCapabilities `yaml:"models"`
	}
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}

	p.Provider = raw.Provider
	p.DisplayName = raw.DisplayName
	p.PersistentContext = raw.PersistentContext
	p.ContextSentinel = raw.ContextSentinel

	// Mapping node content alternates key, value
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			id := modelsNode.Content[j].Value
			if model, ok := raw.Models[id]; ok {
				model.ID = id
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}

package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	domainllm "tenantchat/internal/domain/services/llm"
)

// Actions exposed to the model
const (
	ActionSQLQuery       = "sql_query"
	ActionDocumentSearch = "document_search"
)

// ErrUnknownAction is returned for actions the tenant does not provide.
var ErrUnknownAction = errors.New("unknown action")

// ConfiguredCompany is a tenant driven entirely by its YAML configuration.
type ConfiguredCompany struct {
	cfg     *models.CompanyConfig
	sources []*SQLSource
	docs    *DocumentSearch
	logger  *slog.Logger
}

// NewConfiguredCompany creates a tenant. sources and docs may be empty.
func NewConfiguredCompany(cfg *models.CompanyConfig, sources []*SQLSource, docs *DocumentSearch, logger *slog.Logger) *ConfiguredCompany {
	return &ConfiguredCompany{
		cfg:     cfg,
		sources: sources,
		docs:    docs,
		logger:  logger.With("company", cfg.ShortName),
	}
}

// HandleRequest runs an action with model-supplied parameters.
func (c *ConfiguredCompany) HandleRequest(ctx context.Context, action string, params map[string]interface{}) (interface{}, error) {
	switch action {
	case ActionSQLQuery:
		if len(c.sources) == 0 {
			break
		}
		source, err := c.source(stringParam(params, "source"))
		if err != nil {
			return nil, err
		}
		query := stringParam(params, "query")
		if query == "" {
			return nil, fmt.Errorf("query is required")
		}
		c.logger.Debug("sql query", "source", source.Name, "query", query)
		return source.Query(ctx, query)

	case ActionDocumentSearch:
		if c.docs == nil {
			break
		}
		query := stringParam(params, "query")
		if query == "" {
			return nil, fmt.Errorf("query is required")
		}
		return c.docs.Search(ctx, query, stringParam(params, "document_type"))
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
}

func (c *ConfiguredCompany) source(name string) (*SQLSource, error) {
	if name == "" && len(c.sources) == 1 {
		return c.sources[0], nil
	}
	for _, s := range c.sources {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown sql source %q", name)
}

// GetCompanyContext builds the grounding text sent when a conversation is seeded.
func (c *ConfiguredCompany) GetCompanyContext(ctx context.Context) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", c.cfg.Name)
	if c.cfg.Instructions != "" {
		b.WriteString(strings.TrimSpace(c.cfg.Instructions))
		b.WriteString("\n")
	}

	if len(c.sources) > 0 {
		b.WriteString("\n## Databases\n")
		fmt.Fprintf(&b, "Use the %s function to answer questions from these databases.\n", ActionSQLQuery)
		for _, s := range c.sources {
			summary, err := s.SchemaSummary(ctx)
			if err != nil {
				return "", err
			}
			b.WriteString(summary)
		}
	}

	if c.docs != nil {
		b.WriteString("\n## Documents\n")
		fmt.Fprintf(&b, "Use the %s function to look up passages from the company's documents.\n", ActionDocumentSearch)
		if c.docs.Description != "" {
			b.WriteString(c.docs.Description)
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// GetUserInfo returns the configured user defaults for any user.
func (c *ConfiguredCompany) GetUserInfo(ctx context.Context, userIdentifier string) (models.JSONMap, error) {
	info := c.cfg.UserDefaults.Clone()
	info["user_identifier"] = userIdentifier
	info["company_name"] = c.cfg.Name
	return info, nil
}

// GetMetadataFromFilename classifies a file by the first matching prefix rule.
func (c *ConfiguredCompany) GetMetadataFromFilename(filename string) (models.JSONMap, error) {
	base := filepath.Base(filename)
	meta := models.JSONMap{
		"filename":      base,
		"extension":     strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), "."),
		"document_type": "general",
	}

	lower := strings.ToLower(base)
	for _, rule := range c.cfg.FilenameRules {
		if strings.HasPrefix(lower, strings.ToLower(rule.Prefix)) {
			meta["document_type"] = rule.DocumentType
			break
		}
	}
	return meta, nil
}

// Tools lists the actions available for this tenant's configuration.
func (c *ConfiguredCompany) Tools() []domainllm.ToolDefinition {
	var tools []domainllm.ToolDefinition

	if len(c.sources) > 0 {
		names := make([]interface{}, 0, len(c.sources))
		for _, s := range c.sources {
			names = append(names, s.Name)
		}
		tools = append(tools, domainllm.ToolDefinition{
			Name:        ActionSQLQuery,
			Description: "Run a read-only SQL SELECT statement against one of the company databases.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": map[string]interface{}{"type": "string", "enum": names},
					"query":  map[string]interface{}{"type": "string", "description": "A single SELECT statement"},
				},
				"required": []string{"source", "query"},
			},
		})
	}

	if c.docs != nil {
		tools = append(tools, domainllm.ToolDefinition{
			Name:        ActionDocumentSearch,
			Description: "Search the company's documents for passages relevant to a query.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query":         map[string]interface{}{"type": "string"},
					"document_type": map[string]interface{}{"type": "string"},
				},
				"required": []string{"query"},
			},
		})
	}

	return tools
}

func stringParam(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

var _ services.CompanyCapability = (*ConfiguredCompany)(nil)

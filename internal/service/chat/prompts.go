package chat

import (
	"fmt"
	"strings"
	"text/template"

	"tenantchat/internal/domain/models"
)

var systemPromptTemplate = template.Must(template.New("system").Parse(`{{.CompanyContext}}
## Current user
{{range $k, $v := .User}}- {{$k}}: {{$v}}
{{end}}`))

// buildSystemPrompt combines the company grounding context with the user's session data.
func buildSystemPrompt(companyContext string, user models.JSONMap) (string, error) {
	var b strings.Builder
	err := systemPromptTemplate.Execute(&b, struct {
		CompanyContext string
		User           models.JSONMap
	}{
		CompanyContext: strings.TrimRight(companyContext, "\n") + "\n",
		User:           user,
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return b.String(), nil
}

// renderPrompt executes a company prompt template against the merged data.
func renderPrompt(prompt *models.PromptTemplate, data models.JSONMap) (string, error) {
	tmpl, err := template.New(prompt.Name).Parse(prompt.Template)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", prompt.Name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, map[string]interface{}(data)); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", prompt.Name, err)
	}
	return b.String(), nil
}

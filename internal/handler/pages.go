package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"tenantchat/internal/domain/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Page names
const (
	pageLogin      = "login.html"
	pageOnboarding = "onboarding_shell.html"
	pageChat       = "chat.html"
	pageError      = "error.html"
)

// PageData is the view model shared by all pages.
type PageData struct {
	Company      *models.CompanyConfig
	Message      string
	Email        string
	User         string
	Cards        []models.OnboardingCard
	Prompts      []models.PromptTemplate
	RedeemToken  string
	IframeSrcURL string
	ChatURL      string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template), logger: logger}
	for _, page := range []string{pageLogin, pageOnboarding, pageChat, pageError} {
		tmpl, err := template.ParseFS(templateFiles, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		r.pages[page] = tmpl.Lookup(page)
	}
	return r, nil
}

// Render writes the page with the given status. Output is buffered so a
// template failure still yields a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *PageData) {
	var buf bytes.Buffer
	if err := r.pages[page].Execute(&buf, data); err != nil {
		r.logger.Error("template render failed", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// RenderError writes the company-branded error page. A nil company renders
// an unbranded page.
func (r *Renderer) RenderError(w http.ResponseWriter, status int, company *models.CompanyConfig, message string) {
	if company == nil {
		company = &models.CompanyConfig{Name: "tenantchat"}
	}
	r.Render(w, status, pageError, &PageData{Company: company, Message: message})
}

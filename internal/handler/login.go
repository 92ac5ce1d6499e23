package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
	"tenantchat/internal/session"
)

// AuthHandler serves the login, token and logout endpoints.
type AuthHandler struct {
	companies services.CompanyDirectory
	auth      services.AuthResolver
	tokens    services.TokenService
	preparer  services.ContextPreparer
	contexts  session.ContextStore
	router    *LoginRouter
	renderer  *Renderer
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	companies services.CompanyDirectory,
	auth services.AuthResolver,
	tokens services.TokenService,
	preparer services.ContextPreparer,
	contexts session.ContextStore,
	router *LoginRouter,
	renderer *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		companies: companies,
		auth:      auth,
		tokens:    tokens,
		preparer:  preparer,
		contexts:  contexts,
		router:    router,
		renderer:  renderer,
		logger:    logger,
	}
}

// loginForm is the body of POST /{company}/login
type loginForm struct {
	Email    string
	Password string
}

func (f loginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required.Error("email is required")),
		validation.Field(&f.Password, validation.Required.Error("password is required")),
	)
}

// LoginPage renders the login form.
// GET /{company}/login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadCompanyPage(w, r, h.companies, h.renderer, h.logger)
	if !ok {
		return
	}
	h.renderer.Render(w, http.StatusOK, pageLogin, &PageData{Company: profile.Config})
}

// Login authenticates a local user and routes to the fast or slow path.
// POST /{company}/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadCompanyPage(w, r, h.companies, h.renderer, h.logger)
	if !ok {
		return
	}
	company := profile.Config.ShortName

	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if err := form.Validate(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, profile, form.Email, "Email and password are required")
		return
	}

	outcome := h.auth.LoginLocalUser(r.Context(), w, r, company, form.Email, form.Password)
	if !outcome.Success {
		status := http.StatusBadRequest
		if outcome.ReasonCode == models.ReasonCompanyNotFound {
			status = http.StatusNotFound
		}
		h.renderLogin(w, status, profile, form.Email, outcome.Message)
		return
	}

	h.routeUser(w, r, profile, outcome.UserIdentifier, "")
}

// routeUser checks context freshness and hands off to the login router.
func (h *AuthHandler) routeUser(w http.ResponseWriter, r *http.Request, profile *services.CompanyProfile, userIdentifier, redeemToken string) {
	prep, err := h.preparer.PrepareContext(r.Context(), profile.Config.ShortName, userIdentifier)
	if err != nil {
		h.logger.Error("prepare context failed",
			"company", profile.Config.ShortName,
			"user", userIdentifier,
			"error", err,
		)
		h.renderer.RenderError(w, statusFor(err), profile.Config, "Unable to prepare your session")
		return
	}
	h.router.RouteAfterLogin(w, r, profile, userIdentifier, prep, redeemToken)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, profile *services.CompanyProfile, email, message string) {
	h.renderer.Render(w, status, pageLogin, &PageData{
		Company: profile.Config,
		Email:   email,
		Message: message,
	})
}

// loadCompanyPage resolves the {company} path value for HTML endpoints,
// rendering the error page when it cannot.
func loadCompanyPage(w http.ResponseWriter, r *http.Request, companies services.CompanyDirectory, renderer *Renderer, logger *slog.Logger) (*services.CompanyProfile, bool) {
	profile, err := lookupCompany(r.Context(), companies, r.PathValue("company"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			renderer.RenderError(w, http.StatusNotFound, nil, err.Error())
			return nil, false
		}
		logger.Error("company lookup failed", "company", r.PathValue("company"), "error", err)
		renderer.RenderError(w, http.StatusInternalServerError, nil, "internal server error")
		return nil, false
	}
	return profile, true
}

func lookupCompany(ctx context.Context, companies services.CompanyDirectory, shortName string) (*services.CompanyProfile, error) {
	if shortName == "" {
		return nil, &domain.NotFoundError{Message: "company not found"}
	}
	return companies.Get(ctx, shortName)
}

package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
)

// LoginRouter picks the page shown after any successful login. It trusts the
// preparer's verdict and never inspects why a rebuild is needed.
type LoginRouter struct {
	renderer *Renderer
	baseURL  string
	logger   *slog.Logger
}

// NewLoginRouter creates the post-login router. baseURL is the externally
// reachable origin used for onboarding callback links.
func NewLoginRouter(renderer *Renderer, baseURL string, logger *slog.Logger) *LoginRouter {
	return &LoginRouter{
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// RouteAfterLogin renders the onboarding shell when the context must be
// rebuilt (slow path), or the chat page directly (fast path).
func (lr *LoginRouter) RouteAfterLogin(
	w http.ResponseWriter,
	r *http.Request,
	profile *services.CompanyProfile,
	userIdentifier string,
	prep *models.ContextPrepResult,
	redeemToken string,
) {
	cfg := profile.Config
	company := cfg.ShortName

	if prep != nil && prep.RebuildNeeded {
		lr.logger.Info("routing to onboarding shell",
			"company", company,
			"user", userIdentifier,
			"with_token", redeemToken != "",
		)
		lr.renderer.Render(w, http.StatusOK, pageOnboarding, &PageData{
			Company:      cfg,
			User:         userIdentifier,
			Cards:        cfg.Onboarding,
			IframeSrcURL: lr.finalizeURL(company, redeemToken),
			ChatURL:      chatPath(company),
		})
		return
	}

	lr.logger.Info("routing to chat", "company", company, "user", userIdentifier)
	lr.renderChat(w, cfg, userIdentifier, redeemToken)
}

func (lr *LoginRouter) renderChat(w http.ResponseWriter, cfg *models.CompanyConfig, userIdentifier, redeemToken string) {
	lr.renderer.Render(w, http.StatusOK, pageChat, &PageData{
		Company:     cfg,
		User:        userIdentifier,
		Cards:       cfg.Onboarding,
		Prompts:     cfg.Prompts,
		RedeemToken: redeemToken,
	})
}

// finalizeURL is the callback loaded by the onboarding iframe.
func (lr *LoginRouter) finalizeURL(company, redeemToken string) string {
	if redeemToken != "" {
		return lr.baseURL + "/" + url.PathEscape(company) + "/finalize/" + url.PathEscape(redeemToken)
	}
	return lr.baseURL + "/" + url.PathEscape(company) + "/finalize_context"
}

func chatPath(company string) string {
	return "/" + url.PathEscape(company) + "/chat"
}

func loginPath(company string) string {
	return "/" + url.PathEscape(company) + "/login"
}

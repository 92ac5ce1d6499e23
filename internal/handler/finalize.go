package handler

import (
	"context"
	"log/slog"
	"net/http"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
)

// ChatHandler serves the chat page, context finalization and the query APIs.
type ChatHandler struct {
	companies services.CompanyDirectory
	auth      services.AuthResolver
	preparer  services.ContextPreparer
	executor  services.QueryExecutor
	router    *LoginRouter
	renderer  *Renderer
	logger    *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	companies services.CompanyDirectory,
	auth services.AuthResolver,
	preparer services.ContextPreparer,
	executor services.QueryExecutor,
	router *LoginRouter,
	renderer *Renderer,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		companies: companies,
		auth:      auth,
		preparer:  preparer,
		executor:  executor,
		router:    router,
		renderer:  renderer,
		logger:    logger,
	}
}

// ChatPage renders the chat UI for the session user.
// GET /{company}/chat
func (h *ChatHandler) ChatPage(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadCompanyPage(w, r, h.companies, h.renderer, h.logger)
	if !ok {
		return
	}
	user, ok := h.sessionUser(r, profile.Config.ShortName)
	if !ok {
		http.Redirect(w, r, loginPath(profile.Config.ShortName), http.StatusFound)
		return
	}
	h.router.renderChat(w, profile.Config, user, "")
}

// FinalizeContext rebuilds the session user's context. It is loaded by the
// onboarding shell's hidden iframe.
// GET /{company}/finalize_context
func (h *ChatHandler) FinalizeContext(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadCompanyPage(w, r, h.companies, h.renderer, h.logger)
	if !ok {
		return
	}
	user, ok := h.sessionUser(r, profile.Config.ShortName)
	if !ok {
		http.Redirect(w, r, loginPath(profile.Config.ShortName), http.StatusFound)
		return
	}
	h.finalize(w, r, profile, user)
}

// FinalizeWithToken redeems a continuation token, then rebuilds the context.
// GET /{company}/finalize/{token}
func (h *ChatHandler) FinalizeWithToken(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadCompanyPage(w, r, h.companies, h.renderer, h.logger)
	if !ok {
		return
	}

	outcome := h.auth.RedeemTokenForSession(r.Context(), w, r, profile.Config.ShortName, r.PathValue("token"))
	if !outcome.Success {
		status := http.StatusUnauthorized
		if outcome.ReasonCode == models.ReasonSessionCreationFailed {
			status = http.StatusInternalServerError
		}
		h.renderer.RenderError(w, status, profile.Config, outcome.Message)
		return
	}
	h.finalize(w, r, profile, outcome.UserIdentifier)
}

func (h *ChatHandler) finalize(w http.ResponseWriter, r *http.Request, profile *services.CompanyProfile, user string) {
	company := profile.Config.ShortName

	// The browser may navigate away once the shell swaps pages; the rebuild
	// must still complete and persist.
	ctx := context.WithoutCancel(r.Context())
	if _, err := h.preparer.FinalizeContextRebuild(ctx, company, user, ""); err != nil {
		h.logger.Error("context rebuild failed", "company", company, "user", user, "error", err)
		h.renderer.RenderError(w, http.StatusInternalServerError, profile.Config, "We could not prepare your assistant. Please try again.")
		return
	}

	h.router.renderChat(w, profile.Config, user, "")
}

// sessionUser returns the web-session user bound to company.
func (h *ChatHandler) sessionUser(r *http.Request, company string) (string, bool) {
	claim := h.auth.Verify(r)
	if !claim.Success || claim.AuthType != models.AuthTypeWebSession || claim.CompanyShortName != company {
		return "", false
	}
	return claim.UserIdentifier, true
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"tenantchat/internal/config"
	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/httputil"
)

type externalLoginRequest struct {
	UserIdentifier *string `json:"user_identifier"`
}

// ExternalLogin starts a session for a user identified by a trusted caller
// holding the company's API key or a federated bearer token, then routes
// to the fast or slow path. Browser sessions cannot act for another user.
// POST /{company}/external_login
func (h *AuthHandler) ExternalLogin(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("external login panicked", "company", company, "panic", rec)
			httputil.RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
	}()

	var req externalLoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.UserIdentifier == nil {
		httputil.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "user_identifier is required"})
		return
	}

	profile, err := lookupCompany(r.Context(), h.companies, company)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httputil.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "company not found: " + company})
			return
		}
		h.logger.Error("company lookup failed", "company", company, "error", err)
		httputil.RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user := strings.TrimSpace(*req.UserIdentifier)
	if user == "" {
		httputil.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "user_identifier is empty"})
		return
	}
	if len(user) > config.MaxUserIdentifierLength {
		httputil.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "user_identifier is too long"})
		return
	}

	claim := h.auth.Verify(r)
	if !claim.Success {
		httputil.RespondJSON(w, http.StatusUnauthorized, claim)
		return
	}
	if claim.AuthType != models.AuthTypeAPIKey && claim.AuthType != models.AuthTypeFederated {
		claim.Success = false
		claim.StatusCode = http.StatusUnauthorized
		claim.ErrorMessage = "external login requires an API key or federated bearer token"
		httputil.RespondJSON(w, http.StatusUnauthorized, claim)
		return
	}
	if claim.CompanyShortName != company {
		claim.Success = false
		claim.ErrorMessage = "credential does not belong to company " + company
		httputil.RespondJSON(w, http.StatusUnauthorized, claim)
		return
	}

	if err := h.auth.StartExternalSession(r.Context(), w, r, company, user); err != nil {
		h.logger.Error("external session failed", "company", company, "user", user, "error", err)
		httputil.RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to create session"})
		return
	}

	token, err := h.tokens.GenerateChatJWT(company, user, int64(config.RedeemTokenTTL.Seconds()))
	if err != nil {
		h.logger.Error("redeem token generation failed", "company", company, "user", user, "error", err)
		httputil.RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to issue token"})
		return
	}

	h.logger.Info("external login", "company", company, "user", user, "auth_type", claim.AuthType)
	h.routeUser(w, r, profile, user, token)
}

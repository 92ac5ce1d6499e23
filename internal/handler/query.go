package handler

import (
	"errors"
	"net/http"
	"strings"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/httputil"
)

// LLMQuery runs one question/answer turn for the verified identity.
// POST /{company}/llm_query
func (h *ChatHandler) LLMQuery(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")

	claim, ok := httputil.GetIdentity(r)
	if !ok || claim.CompanyShortName != company {
		httputil.RespondJSON(w, http.StatusUnauthorized, models.IdentityClaim{
			StatusCode:   http.StatusUnauthorized,
			ReasonCode:   models.ReasonAuthenticationRequired,
			ErrorMessage: "credential does not belong to company " + company,
		})
		return
	}

	var req models.QueryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httputil.RespondError(w, status, err.Error())
		return
	}
	req.CompanyShortName = company

	// Only API-key callers may act on behalf of a user named in the body.
	if claim.AuthType != models.AuthTypeAPIKey {
		req.ExternalUserID = claim.UserIdentifier
		req.LocalUserID = 0
	}

	result, err := h.executor.LLMQuery(r.Context(), &req)
	if err != nil {
		h.logger.Error("llm query failed",
			"company", company,
			"auth_type", claim.AuthType,
			"error", err,
		)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, queryStatus(result), result)
}

func queryStatus(result *models.QueryResult) int {
	switch {
	case result.Valid:
		return http.StatusOK
	case result.ErrorKind == models.QueryErrorCompanyNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

type initContextRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Model          string `json:"model"`
}

// InitContext forces a context rebuild for a user, typically called by a
// tenant backend before handing the user over.
// POST /api/{company}/init-context
func (h *ChatHandler) InitContext(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")

	claim, ok := httputil.GetIdentity(r)
	if !ok || claim.CompanyShortName != company {
		httputil.RespondJSON(w, http.StatusUnauthorized, map[string]string{
			"error_message": "credential does not belong to company " + company,
		})
		return
	}

	var req initContextRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := strings.TrimSpace(req.ExternalUserID)
	if claim.AuthType != models.AuthTypeAPIKey {
		user = claim.UserIdentifier
	}
	if user == "" {
		httputil.RespondError(w, http.StatusBadRequest, "external_user_id is required")
		return
	}

	result, err := h.preparer.InitContext(r.Context(), company, user, req.Model)
	if err != nil {
		h.logger.Error("init context failed", "company", company, "user", user, "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status":      "OK",
		"response_id": result.ResponseHandle,
	})
}

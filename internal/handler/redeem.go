package handler

import (
	"net/http"
	"strings"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/httputil"
)

type redeemTokenRequest struct {
	Token string `json:"token"`
}

// RedeemToken exchanges a continuation token for a browser session.
// POST /{company}/api/redeem_token
func (h *AuthHandler) RedeemToken(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")

	var req redeemTokenRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		httputil.RespondError(w, http.StatusBadRequest, "token is required")
		return
	}

	outcome := h.auth.RedeemTokenForSession(r.Context(), w, r, company, token)
	if !outcome.Success {
		status := http.StatusUnauthorized
		if outcome.ReasonCode == models.ReasonSessionCreationFailed {
			status = http.StatusInternalServerError
		}
		httputil.RespondErrorWithExtras(w, status, outcome.Message, map[string]interface{}{
			"reason_code": outcome.ReasonCode,
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

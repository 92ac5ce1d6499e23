package handler

import (
	"net/http"
)

// Logout destroys the browser session, clears the user's context record and
// returns to the login page.
// GET /{company}/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	company := r.PathValue("company")

	sess, err := h.auth.Logout(r.Context(), w, r)
	if err != nil {
		h.logger.Error("logout failed", "company", company, "error", err)
	}
	if sess != nil {
		if err := h.contexts.ClearAllContext(r.Context(), sess.CompanyShortName, sess.UserIdentifier); err != nil {
			h.logger.Warn("failed to clear context on logout",
				"company", sess.CompanyShortName,
				"user", sess.UserIdentifier,
				"error", err,
			)
		}
		h.logger.Info("user logged out", "company", sess.CompanyShortName, "user", sess.UserIdentifier)
	}

	http.Redirect(w, r, loginPath(company), http.StatusSeeOther)
}

package handler

import (
	"errors"
	"net/http"

	"tenantchat/internal/domain"
	"tenantchat/internal/httputil"
)

// handleError writes err as a problem response. Errors without a status
// are reported as a generic 500 so internals never leak.
func handleError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, domain.ErrContextIntegrity) {
		detail = "internal server error"
	}
	httputil.RespondError(w, status, detail)
}

// statusFor returns the status code handleError would use.
func statusFor(err error) int {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	return http.StatusInternalServerError
}

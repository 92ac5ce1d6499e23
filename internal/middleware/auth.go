package middleware

import (
	"net/http"

	"tenantchat/internal/domain/services"
	"tenantchat/internal/httputil"
)

// RequireIdentity verifies every request with the auth resolver. Failed
// claims are written back verbatim with their status code; verified claims
// are stored on the request context for handlers to read with
// httputil.GetIdentity.
func RequireIdentity(resolver services.AuthResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim := resolver.Verify(r)
			if !claim.Success {
				httputil.RespondJSON(w, claim.StatusCode, claim)
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, claim))
		})
	}
}

package httputil

import (
	"context"
	"net/http"

	"tenantchat/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey contextKey = "identity"
)

// WithIdentity adds the verified identity to the request context
func WithIdentity(r *http.Request, claim models.IdentityClaim) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, claim)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the verified identity from context
func GetIdentity(r *http.Request) (models.IdentityClaim, bool) {
	claim, ok := r.Context().Value(identityKey).(models.IdentityClaim)
	return claim, ok
}

package auth

import (
	"context"
	"net/http"

	"tenantchat/internal/domain/models"
)

// FederatedVerifier verifies bearer tokens issued by an external identity provider.
type FederatedVerifier interface {
	// VerifyToken validates the token and returns its claims.
	VerifyToken(tokenString string) (*models.FederatedClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}

// AccessRecorder appends to the authentication audit trail.
type AccessRecorder interface {
	Record(ctx context.Context, r *http.Request, entry *models.AccessLogEntry)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier implements FederatedVerifier using the provider's JWKS endpoint.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWKSVerifier creates a verifier that fetches public keys from jwksURL.
// keyfunc caches and refreshes the key set based on HTTP cache headers.
func NewJWKSVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("federated JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// VerifyToken validates a provider token. The token must name both the
// company and the user (sub).
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.FederatedClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.FederatedClaims{}, v.jwks.Keyfunc,
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("federated token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Prevent algorithm confusion attacks, and keep HS256 chat tokens out of this path
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		v.logger.Warn("federated token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.FederatedClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" || claims.CompanyShortName == "" {
		v.logger.Debug("federated token missing subject or company claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op; keyfunc v3 manages its own refresh goroutine lifecycle via ctx.
func (v *JWKSVerifier) Close() error {
	v.logger.Info("federated JWT verifier closed")
	return nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tenantchat/internal/domain/models"
)

const (
	chatTokenType   = "chat"
	chatTokenIssuer = "tenantchat"
)

// ChatTokenService signs and validates continuation tokens with HS256.
type ChatTokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a token service. The secret must be non-empty.
func NewTokenService(secret string) (*ChatTokenService, error) {
	if secret == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	return &ChatTokenService{secret: []byte(secret), now: time.Now}, nil
}

// GenerateChatJWT signs a token for the identity that expires expiresIn seconds from now.
func (s *ChatTokenService) GenerateChatJWT(companyShortName, userIdentifier string, expiresIn int64) (string, error) {
	if companyShortName == "" || userIdentifier == "" {
		return "", errors.New("company and user identifier are required")
	}

	now := s.now()
	claims := models.ChatClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    chatTokenIssuer,
			Subject:   userIdentifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiresIn) * time.Second)),
		},
		UserIdentifier:   userIdentifier,
		CompanyShortName: companyShortName,
		Type:             chatTokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign chat token: %w", err)
	}
	return signed, nil
}

// ValidateChatJWT returns the token claims, or nil if the signature, expiry
// or claim set is invalid.
func (s *ChatTokenService) ValidateChatJWT(tokenString string) *models.ChatClaims {
	if tokenString == "" {
		return nil
	}

	claims := &models.ChatClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(chatTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil
	}

	if claims.UserIdentifier == "" || claims.CompanyShortName == "" || claims.Type != chatTokenType || claims.ID == "" {
		return nil
	}
	return claims
}

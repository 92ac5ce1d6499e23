package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthType tags an access log entry with the credential path used.
type AuthType string

const (
	AuthTypeWebSession    AuthType = "web_session"
	AuthTypeFederated     AuthType = "federated"
	AuthTypeLocal         AuthType = "local"
	AuthTypeRedeemToken   AuthType = "redeem_token"
	AuthTypeAPIKey        AuthType = "api_key"
	AuthTypeExternalLogin AuthType = "external_login"
)

// Access log outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Machine-checkable reason codes for failed authentication
const (
	ReasonInvalidCredentials     = "INVALID_CREDENTIALS"
	ReasonJWTInvalid             = "JWT_INVALID"
	ReasonSessionCreationFailed  = "SESSION_CREATION_FAILED"
	ReasonAPIKeyInvalid          = "API_KEY_INVALID"
	ReasonAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	ReasonCompanyNotFound        = "COMPANY_NOT_FOUND"
)

// IdentityClaim is the per-request verdict of the auth resolver.
// Exactly one of the success fields or the failure fields is populated.
type IdentityClaim struct {
	Success          bool     `json:"success"`
	UserIdentifier   string   `json:"user_identifier,omitempty"`
	CompanyShortName string   `json:"company_short_name,omitempty"`
	AuthType         AuthType `json:"auth_type,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	StatusCode       int      `json:"status_code,omitempty"`
	ReasonCode       string   `json:"reason_code,omitempty"`
}

// AuthOutcome is the result of an interactive login or token redemption.
type AuthOutcome struct {
	Success        bool   `json:"success"`
	UserIdentifier string `json:"user_identifier,omitempty"`
	SessionID      string `json:"-"`
	ReasonCode     string `json:"reason_code,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ChatClaims are the claims carried by continuation tokens.
type ChatClaims struct {
	jwt.RegisteredClaims
	UserIdentifier   string `json:"user_identifier"`
	CompanyShortName string `json:"company_short_name"`
	Type             string `json:"type"`
}

// FederatedClaims are the claims expected from an external identity provider.
type FederatedClaims struct {
	jwt.RegisteredClaims
	CompanyShortName string `json:"company_short_name"`
	Email            string `json:"email"`
}

// AccessLogEntry is one row of the authentication audit trail.
type AccessLogEntry struct {
	ID               int64     `json:"id"`
	CompanyShortName string    `json:"company_short_name"`
	AuthType         AuthType  `json:"auth_type"`
	Outcome          string    `json:"outcome"`
	ReasonCode       string    `json:"reason_code,omitempty"`
	UserIdentifier   string    `json:"user_identifier,omitempty"`
	RequestPath      string    `json:"request_path,omitempty"`
	SourceIP         string    `json:"source_ip,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	DurationMS       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// LocalUserIdentifier is the identifier convention for local (numeric id) users.
func LocalUserIdentifier(userID int64) string {
	return fmt.Sprintf("User_%d", userID)
}

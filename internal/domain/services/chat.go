package services

import (
	"context"
	"net/http"

	"tenantchat/internal/domain/models"
)

// ContextPreparer decides whether a user's conversational context is fresh
// and rebuilds it on request.
type ContextPreparer interface {
	// PrepareContext is read-only.
	PrepareContext(ctx context.Context, companyShortName, userIdentifier string) (*models.ContextPrepResult, error)
	FinalizeContextRebuild(ctx context.Context, companyShortName, userIdentifier, model string) (*models.RebuildResult, error)
	// InitContext clears, prepares and rebuilds in one call.
	InitContext(ctx context.Context, companyShortName, userIdentifier, model string) (*models.RebuildResult, error)
}

// QueryExecutor runs one question/answer turn.
type QueryExecutor interface {
	LLMQuery(ctx context.Context, req *models.QueryRequest) (*models.QueryResult, error)
}

// AuthResolver establishes request identity.
type AuthResolver interface {
	Verify(r *http.Request) models.IdentityClaim
	LoginLocalUser(ctx context.Context, w http.ResponseWriter, r *http.Request, companyShortName, email, password string) models.AuthOutcome
	RedeemTokenForSession(ctx context.Context, w http.ResponseWriter, r *http.Request, companyShortName, token string) models.AuthOutcome
	StartExternalSession(ctx context.Context, w http.ResponseWriter, r *http.Request, companyShortName, userIdentifier string) error
	Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.WebSession, error)
}

// TokenService issues and validates continuation tokens.
type TokenService interface {
	GenerateChatJWT(companyShortName, userIdentifier string, expiresIn int64) (string, error)
	ValidateChatJWT(token string) *models.ChatClaims
}

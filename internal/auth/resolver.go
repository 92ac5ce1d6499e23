package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
	"tenantchat/internal/domain/services"
	"tenantchat/internal/session"
)

// ResolverConfig holds the collaborators of the auth resolver.
type ResolverConfig struct {
	Sessions  *session.Manager
	Tokens    services.TokenService
	Companies repositories.CompanyRepository
	Users     repositories.UserRepository
	APIKeys   repositories.APIKeyRepository
	Tx        repositories.TransactionManager // Optional
	Federated FederatedVerifier               // Optional
	Audit     AccessRecorder
	Logger    *slog.Logger
}

// Resolver implements services.AuthResolver.
type Resolver struct {
	cfg ResolverConfig
	now func() time.Time
}

// NewResolver creates the auth resolver.
func NewResolver(cfg ResolverConfig) services.AuthResolver {
	return &Resolver{cfg: cfg, now: time.Now}
}

// Verify establishes identity from, in order: the web session, an API key
// (or federated bearer token), and otherwise fails.
// API keys authenticate a company only; UserIdentifier stays empty.
func (a *Resolver) Verify(r *http.Request) models.IdentityClaim {
	ctx := r.Context()

	// 1. Web session
	sess, err := a.cfg.Sessions.Load(ctx, r)
	if err != nil {
		a.cfg.Logger.Error("session store unavailable", "error", err)
		return failure(http.StatusInternalServerError, "", "session store unavailable")
	}
	if sess != nil && sess.UserIdentifier != "" {
		return models.IdentityClaim{
			Success:          true,
			UserIdentifier:   sess.UserIdentifier,
			CompanyShortName: sess.CompanyShortName,
			AuthType:         models.AuthTypeWebSession,
		}
	}

	// 2. API key or federated bearer
	credential := credentialFromRequest(r)
	if credential != "" {
		if a.cfg.Federated != nil && looksLikeJWT(credential) {
			return a.verifyFederated(ctx, r, credential)
		}
		return a.verifyAPIKey(ctx, r, credential)
	}

	// 3. Nothing presented
	return failure(http.StatusUnauthorized, models.ReasonAuthenticationRequired, "Authentication required")
}

func (a *Resolver) verifyAPIKey(ctx context.Context, r *http.Request, credential string) models.IdentityClaim {
	start := a.now()

	key, err := a.cfg.APIKeys.GetActiveByKey(ctx, credential)
	if err != nil {
		a.cfg.Logger.Error("api key lookup failed", "error", err)
		return failure(http.StatusInternalServerError, "", "internal server error")
	}
	if key == nil {
		a.audit(ctx, r, "", models.AuthTypeAPIKey, models.OutcomeFailure, models.ReasonAPIKeyInvalid, "", start)
		return failure(http.StatusUnauthorized, models.ReasonAPIKeyInvalid, "Invalid or inactive API key")
	}

	company, err := a.cfg.Companies.GetByID(ctx, key.CompanyID)
	if err != nil {
		a.cfg.Logger.Error("company lookup for api key failed", "error", err, "company_id", key.CompanyID)
		return failure(http.StatusInternalServerError, "", "internal server error")
	}
	if company == nil || !company.Active {
		a.audit(ctx, r, "", models.AuthTypeAPIKey, models.OutcomeFailure, models.ReasonAPIKeyInvalid, "", start)
		return failure(http.StatusUnauthorized, models.ReasonAPIKeyInvalid, "Invalid or inactive API key")
	}

	touch := func(ctx context.Context) error { return a.cfg.APIKeys.TouchLastUsed(ctx, key.ID) }
	if a.cfg.Tx != nil {
		err = a.cfg.Tx.ExecTx(ctx, touch)
	} else {
		err = touch(ctx)
	}
	if err != nil {
		a.cfg.Logger.Warn("failed to touch api key", "error", err, "api_key_id", key.ID)
	}

	return models.IdentityClaim{
		Success:          true,
		CompanyShortName: company.ShortName,
		AuthType:         models.AuthTypeAPIKey,
	}
}

func (a *Resolver) verifyFederated(ctx context.Context, r *http.Request, token string) models.IdentityClaim {
	start := a.now()

	claims, err := a.cfg.Federated.VerifyToken(token)
	if err != nil {
		a.audit(ctx, r, "", models.AuthTypeFederated, models.OutcomeFailure, models.ReasonJWTInvalid, "", start)
		return failure(http.StatusUnauthorized, models.ReasonJWTInvalid, "Invalid bearer token")
	}

	return models.IdentityClaim{
		Success:          true,
		UserIdentifier:   claims.Subject,
		CompanyShortName: claims.CompanyShortName,
		AuthType:         models.AuthTypeFederated,
	}
}

// LoginLocalUser checks email/password and starts a web session.
func (a *Resolver) LoginLocalUser(ctx context.Context, w http.ResponseWriter, r *http.Request, companyShortName, email, password string) models.AuthOutcome {
	start := a.now()
	email = strings.ToLower(strings.TrimSpace(email))

	fail := func(reason, message string) models.AuthOutcome {
		a.audit(ctx, r, companyShortName, models.AuthTypeLocal, models.OutcomeFailure, reason, email, start)
		return models.AuthOutcome{ReasonCode: reason, Message: message}
	}

	company, err := a.cfg.Companies.GetByShortName(ctx, companyShortName)
	if err != nil {
		a.cfg.Logger.Error("company lookup failed", "error", err, "company", companyShortName)
		return fail(models.ReasonInvalidCredentials, "Unable to sign in right now")
	}
	if company == nil {
		return fail(models.ReasonCompanyNotFound, "Company not found")
	}

	user, err := a.cfg.Users.GetByEmail(ctx, email)
	if err != nil {
		a.cfg.Logger.Error("user lookup failed", "error", err, "company", companyShortName)
		return fail(models.ReasonInvalidCredentials, "Unable to sign in right now")
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return fail(models.ReasonInvalidCredentials, "Invalid email or password")
	}
	if !user.Verified {
		return fail(models.ReasonInvalidCredentials, "Account has not been verified")
	}

	member, err := a.cfg.Users.IsMember(ctx, user.ID, company.ID)
	if err != nil {
		a.cfg.Logger.Error("membership lookup failed", "error", err, "company", companyShortName, "user_id", user.ID)
		return fail(models.ReasonInvalidCredentials, "Unable to sign in right now")
	}
	if !member {
		return fail(models.ReasonInvalidCredentials, "Invalid email or password")
	}

	identifier := models.LocalUserIdentifier(user.ID)
	sess := &models.WebSession{
		CompanyShortName: companyShortName,
		UserIdentifier:   identifier,
		UserEmail:        user.Email,
		IsLocalUser:      true,
	}
	if err := a.cfg.Sessions.Start(ctx, w, r, sess); err != nil {
		a.cfg.Logger.Error("session creation failed", "error", err, "company", companyShortName)
		return fail(models.ReasonSessionCreationFailed, "Unable to create session")
	}

	a.audit(ctx, r, companyShortName, models.AuthTypeLocal, models.OutcomeSuccess, "", identifier, start)
	return models.AuthOutcome{Success: true, UserIdentifier: identifier, SessionID: sess.ID}
}

// RedeemTokenForSession exchanges a single-use continuation token for a web session.
func (a *Resolver) RedeemTokenForSession(ctx context.Context, w http.ResponseWriter, r *http.Request, companyShortName, token string) models.AuthOutcome {
	start := a.now()

	claims := a.cfg.Tokens.ValidateChatJWT(token)
	if claims == nil || claims.CompanyShortName != companyShortName {
		a.audit(ctx, r, companyShortName, models.AuthTypeRedeemToken, models.OutcomeFailure, models.ReasonJWTInvalid, "", start)
		return models.AuthOutcome{ReasonCode: models.ReasonJWTInvalid, Message: "Invalid or expired token"}
	}
	user := claims.UserIdentifier

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < time.Second {
		ttl = time.Second
	}
	first, err := a.cfg.Sessions.Store().ClaimNonce(ctx, claims.ID, ttl)
	if err != nil {
		a.cfg.Logger.Error("token nonce claim failed", "error", err, "company", companyShortName)
		a.audit(ctx, r, companyShortName, models.AuthTypeRedeemToken, models.OutcomeFailure, models.ReasonSessionCreationFailed, user, start)
		return models.AuthOutcome{ReasonCode: models.ReasonSessionCreationFailed, Message: "Unable to create session"}
	}
	if !first {
		a.audit(ctx, r, companyShortName, models.AuthTypeRedeemToken, models.OutcomeFailure, models.ReasonJWTInvalid, user, start)
		return models.AuthOutcome{ReasonCode: models.ReasonJWTInvalid, Message: "Token has already been used"}
	}

	sess := &models.WebSession{CompanyShortName: companyShortName, UserIdentifier: user}
	if err := a.cfg.Sessions.Start(ctx, w, r, sess); err != nil {
		a.cfg.Logger.Error("session creation failed", "error", err, "company", companyShortName)
		a.audit(ctx, r, companyShortName, models.AuthTypeRedeemToken, models.OutcomeFailure, models.ReasonSessionCreationFailed, user, start)
		return models.AuthOutcome{ReasonCode: models.ReasonSessionCreationFailed, Message: "Unable to create session"}
	}

	a.audit(ctx, r, companyShortName, models.AuthTypeRedeemToken, models.OutcomeSuccess, "", user, start)
	return models.AuthOutcome{Success: true, UserIdentifier: user, SessionID: sess.ID}
}

// StartExternalSession binds a browser session to an externally identified user.
func (a *Resolver) StartExternalSession(ctx context.Context, w http.ResponseWriter, r *http.Request, companyShortName, userIdentifier string) error {
	start := a.now()
	sess := &models.WebSession{CompanyShortName: companyShortName, UserIdentifier: userIdentifier}
	if err := a.cfg.Sessions.Start(ctx, w, r, sess); err != nil {
		a.audit(ctx, r, companyShortName, models.AuthTypeExternalLogin, models.OutcomeFailure, models.ReasonSessionCreationFailed, userIdentifier, start)
		return err
	}
	a.audit(ctx, r, companyShortName, models.AuthTypeExternalLogin, models.OutcomeSuccess, "", userIdentifier, start)
	return nil
}

// Logout destroys the web session and returns it, if one existed.
func (a *Resolver) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.WebSession, error) {
	return a.cfg.Sessions.Destroy(ctx, w, r)
}

func (a *Resolver) audit(ctx context.Context, r *http.Request, company string, authType models.AuthType, outcome, reason, user string, start time.Time) {
	a.cfg.Audit.Record(ctx, r, &models.AccessLogEntry{
		CompanyShortName: company,
		AuthType:         authType,
		Outcome:          outcome,
		ReasonCode:       reason,
		UserIdentifier:   user,
		DurationMS:       a.now().Sub(start).Milliseconds(),
	})
}

func failure(status int, reason, message string) models.IdentityClaim {
	return models.IdentityClaim{StatusCode: status, ReasonCode: reason, ErrorMessage: message}
}

// credentialFromRequest reads X-Api-Key, falling back to an Authorization bearer.
func credentialFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-Api-Key")); key != "" {
		return key
	}
	authz := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authz, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func looksLikeJWT(s string) bool {
	return strings.Count(s, ".") == 2
}

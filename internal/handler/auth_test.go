package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"tenantchat/internal/domain/models"
)

func TestExternalLogin(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		body          string
		claim         models.IdentityClaim
		rebuildNeeded bool
		sessionErr    error
		wantStatus    int
		wantContains  []string
	}{
		{
			name:       "invalid json",
			path:       "/acme/external_login",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing field",
			path:       "/acme/external_login",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown company",
			path:       "/globex/external_login",
			body:       `{"user_identifier": "U"}`,
			claim:      apiKeyClaim("globex"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty identifier",
			path:       "/acme/external_login",
			body:       `{"user_identifier": ""}`,
			claim:      apiKeyClaim("acme"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "resolver failure surfaces message",
			path:         "/acme/external_login",
			body:         `{"user_identifier": "U"}`,
			claim:        authFailure("Invalid or inactive API key"),
			wantStatus:   http.StatusUnauthorized,
			wantContains: []string{`"error_message":"Invalid or inactive API key"`, `"success":false`},
		},
		{
			name:       "key for another company",
			path:       "/acme/external_login",
			body:       `{"user_identifier": "U"}`,
			claim:      apiKeyClaim("globex"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "session creation fails",
			path:       "/acme/external_login",
			body:       `{"user_identifier": "U"}`,
			claim:      apiKeyClaim("acme"),
			sessionErr: errors.New("redis down"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:          "slow path renders loading shell with callback",
			path:          "/acme/external_login",
			body:          `{"user_identifier": "U"}`,
			claim:         apiKeyClaim("acme"),
			rebuildNeeded: true,
			wantStatus:    http.StatusOK,
			wantContains:  []string{"context-frame", "https://chat.example.com/acme/finalize/tok-U"},
		},
		{
			name:         "fast path renders chat with redeem token",
			path:         "/acme/external_login",
			body:         `{"user_identifier": "U"}`,
			claim:        apiKeyClaim("acme"),
			wantStatus:   http.StatusOK,
			wantContains: []string{`id="ask"`, "tok-U"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.resolver.claim = tt.claim
			f.resolver.externalErr = tt.sessionErr
			f.preparer.rebuildNeeded = tt.rebuildNeeded

			rec := f.do(http.MethodPost, tt.path, "application/json", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("body missing %q:\n%s", want, rec.Body.String())
				}
			}
		})
	}
}

func TestExternalLogin_RejectsBrowserSession(t *testing.T) {
	f := newFixture(t)
	f.resolver.claim = webSession("User_7")

	rec := f.do(http.MethodPost, "/acme/external_login", "application/json", `{"user_identifier": "ceo@acme"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 (body %s)", rec.Code, rec.Body.String())
	}
	if f.resolver.externalUser != "" {
		t.Errorf("session started for %q from a browser session", f.resolver.externalUser)
	}
}

func TestExternalLogin_AcceptsFederatedBearer(t *testing.T) {
	f := newFixture(t)
	f.resolver.claim = models.IdentityClaim{Success: true, CompanyShortName: "acme", AuthType: models.AuthTypeFederated}

	rec := f.do(http.MethodPost, "/acme/external_login", "application/json", `{"user_identifier": "U"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if f.resolver.externalUser != "U" {
		t.Errorf("session user = %q, want U", f.resolver.externalUser)
	}
}

func TestExternalLogin_ShellDoesNotRenderChat(t *testing.T) {
	f := newFixture(t)
	f.resolver.claim = apiKeyClaim("acme")
	f.preparer.rebuildNeeded = true

	rec := f.do(http.MethodPost, "/acme/external_login", "application/json", `{"user_identifier": " U "}`)
	if strings.Contains(rec.Body.String(), `id="ask"`) {
		t.Error("slow path rendered the chat form")
	}
	if f.resolver.externalUser != "U" {
		t.Errorf("session user = %q, want trimmed %q", f.resolver.externalUser, "U")
	}
}

func TestRedeemToken(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		outcome    models.AuthOutcome
		wantStatus int
		wantReason string
	}{
		{
			name:       "missing token",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid token",
			body:       `{"token": "bad"}`,
			outcome:    models.AuthOutcome{ReasonCode: models.ReasonJWTInvalid, Message: "Invalid or expired token"},
			wantStatus: http.StatusUnauthorized,
			wantReason: models.ReasonJWTInvalid,
		},
		{
			name:       "session creation failed",
			body:       `{"token": "good"}`,
			outcome:    models.AuthOutcome{ReasonCode: models.ReasonSessionCreationFailed, Message: "Unable to create session"},
			wantStatus: http.StatusInternalServerError,
			wantReason: models.ReasonSessionCreationFailed,
		},
		{
			name:       "redeemed",
			body:       `{"token": "good"}`,
			outcome:    models.AuthOutcome{Success: true, UserIdentifier: "U"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.resolver.redeem = tt.outcome

			rec := f.do(http.MethodPost, "/acme/api/redeem_token", "application/json", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if tt.wantStatus == http.StatusOK && body["status"] != "ok" {
				t.Errorf("status field = %v, want ok", body["status"])
			}
			if tt.wantReason != "" && body["reason_code"] != tt.wantReason {
				t.Errorf("reason_code = %v, want %s", body["reason_code"], tt.wantReason)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name          string
		form          url.Values
		outcome       models.AuthOutcome
		rebuildNeeded bool
		wantStatus    int
		wantContains  string
	}{
		{
			name:         "missing password re-renders form",
			form:         url.Values{"email": {"ana@acme.test"}},
			wantStatus:   http.StatusBadRequest,
			wantContains: "Email and password are required",
		},
		{
			name:         "bad credentials",
			form:         url.Values{"email": {"ana@acme.test"}, "password": {"nope"}},
			outcome:      models.AuthOutcome{ReasonCode: models.ReasonInvalidCredentials, Message: "Invalid email or password"},
			wantStatus:   http.StatusBadRequest,
			wantContains: "Invalid email or password",
		},
		{
			name:         "fresh context goes to chat",
			form:         url.Values{"email": {"ana@acme.test"}, "password": {"secret"}},
			outcome:      models.AuthOutcome{Success: true, UserIdentifier: "User_7"},
			wantStatus:   http.StatusOK,
			wantContains: `id="ask"`,
		},
		{
			name:          "stale context goes to shell without token",
			form:          url.Values{"email": {"ana@acme.test"}, "password": {"secret"}},
			outcome:       models.AuthOutcome{Success: true, UserIdentifier: "User_7"},
			rebuildNeeded: true,
			wantStatus:    http.StatusOK,
			wantContains:  "https://chat.example.com/acme/finalize_context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.resolver.login = tt.outcome
			f.preparer.rebuildNeeded = tt.rebuildNeeded

			rec := f.do(http.MethodPost, "/acme/login", "application/x-www-form-urlencoded", tt.form.Encode())
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantContains) {
				t.Errorf("body missing %q:\n%s", tt.wantContains, rec.Body.String())
			}
		})
	}
}

func TestLoginPage_UnknownCompany(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/globex/login", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLogout_ClearsContext(t *testing.T) {
	f := newFixture(t)
	f.resolver.loggedOut = &models.WebSession{CompanyShortName: "acme", UserIdentifier: "U"}
	ctx := t.Context()
	if err := f.contexts.SaveLastResponseHandle(ctx, "acme", "U", "resp_1"); err != nil {
		t.Fatal(err)
	}

	rec := f.do(http.MethodGet, "/acme/logout", "", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/acme/login" {
		t.Errorf("Location = %q, want /acme/login", loc)
	}

	handle, err := f.contexts.GetLastResponseHandle(ctx, "acme", "U")
	if err != nil {
		t.Fatal(err)
	}
	if handle != "" {
		t.Errorf("handle after logout = %q, want empty", handle)
	}
}

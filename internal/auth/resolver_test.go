package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/session"
)

// Mock implementations

type mockAudit struct {
	mu      sync.Mutex
	entries []models.AccessLogEntry
}

func (m *mockAudit) Record(ctx context.Context, r *http.Request, entry *models.AccessLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
}

func (m *mockAudit) last(t *testing.T) models.AccessLogEntry {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return m.entries[len(m.entries)-1]
}

type mockCompanies struct {
	byName map[string]*models.Company
}

func (m *mockCompanies) GetByShortName(ctx context.Context, shortName string) (*models.Company, error) {
	return m.byName[shortName], nil
}

func (m *mockCompanies) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	for _, c := range m.byName {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCompanies) Upsert(ctx context.Context, company *models.Company) error { return nil }

type mockUsers struct {
	users     map[string]*models.User
	members   map[int64]int64 // user -> company
	memberErr error
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.users[email], nil
}

func (m *mockUsers) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	if m.memberErr != nil {
		return false, m.memberErr
	}
	return m.members[userID] == companyID, nil
}

type mockAPIKeys struct {
	keys    map[string]*models.APIKey
	touched []int64
}

func (m *mockAPIKeys) GetActiveByKey(ctx context.Context, key string) (*models.APIKey, error) {
	k, ok := m.keys[key]
	if !ok || !k.Active {
		return nil, nil
	}
	return k, nil
}

func (m *mockAPIKeys) TouchLastUsed(ctx context.Context, id int64) error {
	m.touched = append(m.touched, id)
	return nil
}

type resolverFixture struct {
	resolver *Resolver
	tokens   *ChatTokenService
	sessions *session.Manager
	audit    *mockAudit
	apiKeys  *mockAPIKeys
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	store, _ := session.NewWebStore(session.StoreTypeMemory)
	sessions := session.NewManager(store, time.Hour, false)
	tokens, _ := NewTokenService("test-secret")
	audit := &mockAudit{}
	apiKeys := &mockAPIKeys{keys: map[string]*models.APIKey{
		"live-key":    {ID: 1, CompanyID: 10, Key: "live-key", Active: true},
		"revoked-key": {ID: 2, CompanyID: 10, Key: "revoked-key", Active: false},
	}}

	r := NewResolver(ResolverConfig{
		Sessions: sessions,
		Tokens:   tokens,
		Companies: &mockCompanies{byName: map[string]*models.Company{
			"acme": {ID: 10, ShortName: "acme", Active: true},
		}},
		Users: &mockUsers{
			users: map[string]*models.User{
				"ana@acme.test": {ID: 7, Email: "ana@acme.test", PasswordHash: string(hash), Verified: true},
			},
			members: map[int64]int64{7: 10},
		},
		APIKeys: apiKeys,
		Audit:   audit,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}).(*Resolver)

	return &resolverFixture{resolver: r, tokens: tokens, sessions: sessions, audit: audit, apiKeys: apiKeys}
}

func TestVerify(t *testing.T) {
	f := newResolverFixture(t)

	tests := []struct {
		name        string
		header      map[string]string
		wantSuccess bool
		wantStatus  int
		wantCompany string
	}{
		{
			name:       "no credentials",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:        "x-api-key",
			header:      map[string]string{"X-Api-Key": "live-key"},
			wantSuccess: true,
			wantCompany: "acme",
		},
		{
			name:        "bearer api key",
			header:      map[string]string{"Authorization": "Bearer live-key"},
			wantSuccess: true,
			wantCompany: "acme",
		},
		{
			name:       "inactive key",
			header:     map[string]string{"X-Api-Key": "revoked-key"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown key",
			header:     map[string]string{"X-Api-Key": "nope"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/acme/llm_query", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			claim := f.resolver.Verify(req)
			if claim.Success != tt.wantSuccess {
				t.Fatalf("Success = %v, want %v (%+v)", claim.Success, tt.wantSuccess, claim)
			}
			if tt.wantSuccess {
				if claim.CompanyShortName != tt.wantCompany {
					t.Errorf("company = %q, want %q", claim.CompanyShortName, tt.wantCompany)
				}
				if claim.UserIdentifier != "" {
					t.Errorf("api key auth must not resolve a user, got %q", claim.UserIdentifier)
				}
				if claim.ErrorMessage != "" || claim.StatusCode != 0 {
					t.Errorf("success claim carries failure fields: %+v", claim)
				}
				return
			}
			if claim.StatusCode != tt.wantStatus || claim.ErrorMessage == "" {
				t.Errorf("failure claim = %+v", claim)
			}
			if claim.UserIdentifier != "" || claim.CompanyShortName != "" {
				t.Errorf("failure claim carries identity: %+v", claim)
			}
		})
	}

	if len(f.apiKeys.touched) != 2 {
		t.Errorf("touched = %v, want two successful key uses", f.apiKeys.touched)
	}
}

func TestVerify_SessionTakesPrecedence(t *testing.T) {
	f := newResolverFixture(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	start := httptest.NewRequest(http.MethodPost, "/acme/login", nil)
	if err := f.sessions.Start(ctx, rec, start, &models.WebSession{CompanyShortName: "acme", UserIdentifier: "ext-42"}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/acme/llm_query", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	req.Header.Set("X-Api-Key", "revoked-key")

	claim := f.resolver.Verify(req)
	if !claim.Success || claim.UserIdentifier != "ext-42" || claim.AuthType != models.AuthTypeWebSession {
		t.Errorf("claim = %+v", claim)
	}
}

func TestLoginLocalUser(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		wantOK     bool
		wantReason string
	}{
		{"valid", "Ana@acme.test ", "s3cret", true, ""},
		{"wrong password", "ana@acme.test", "bad", false, models.ReasonInvalidCredentials},
		{"unknown user", "bob@acme.test", "s3cret", false, models.ReasonInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResolverFixture(t)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/acme/login", nil)

			out := f.resolver.LoginLocalUser(context.Background(), rec, req, "acme", tt.email, tt.password)
			if out.Success != tt.wantOK || out.ReasonCode != tt.wantReason {
				t.Fatalf("outcome = %+v", out)
			}

			entry := f.audit.last(t)
			if entry.AuthType != models.AuthTypeLocal || entry.CompanyShortName != "acme" {
				t.Errorf("audit entry = %+v", entry)
			}
			if tt.wantOK {
				if out.UserIdentifier != "User_7" {
					t.Errorf("identifier = %q, want User_7", out.UserIdentifier)
				}
				if entry.Outcome != models.OutcomeSuccess || len(rec.Result().Cookies()) != 1 {
					t.Errorf("expected success audit and a session cookie, entry = %+v", entry)
				}
			} else if entry.Outcome != models.OutcomeFailure || entry.ReasonCode != tt.wantReason {
				t.Errorf("audit entry = %+v", entry)
			}
		})
	}
}

func TestLoginLocalUser_MembershipLookupError(t *testing.T) {
	f := newResolverFixture(t)
	var logs bytes.Buffer
	f.resolver.cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	f.resolver.cfg.Users.(*mockUsers).memberErr = errors.New("connection reset")

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	f.resolver.now = func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(1500 * time.Millisecond)
	}

	req := httptest.NewRequest(http.MethodPost, "/acme/login", nil)
	out := f.resolver.LoginLocalUser(context.Background(), httptest.NewRecorder(), req, "acme", "ana@acme.test", "s3cret")
	if out.Success || out.ReasonCode != models.ReasonInvalidCredentials {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(logs.String(), "membership lookup failed") || !strings.Contains(logs.String(), "connection reset") {
		t.Errorf("lookup error not logged: %q", logs.String())
	}

	entry := f.audit.last(t)
	if entry.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", entry.DurationMS)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"duration_ms":1500`) {
		t.Errorf("encoded entry = %s, want duration_ms in milliseconds", raw)
	}
}

func TestRedeemTokenForSession(t *testing.T) {
	f := newResolverFixture(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	f.tokens.now = func() time.Time { return now }

	token, err := f.tokens.GenerateChatJWT("acme", "U", 300)
	if err != nil {
		t.Fatal(err)
	}

	// Valid token creates a session bound to U
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/acme/api/redeem_token", nil)
	out := f.resolver.RedeemTokenForSession(ctx, rec, req, "acme", token)
	if !out.Success || out.UserIdentifier != "U" {
		t.Fatalf("outcome = %+v", out)
	}
	entry := f.audit.last(t)
	if entry.AuthType != models.AuthTypeRedeemToken || entry.Outcome != models.OutcomeSuccess || entry.UserIdentifier != "U" {
		t.Errorf("audit entry = %+v", entry)
	}

	next := httptest.NewRequest(http.MethodGet, "/acme/chat", nil)
	next.AddCookie(rec.Result().Cookies()[0])
	sess, _ := f.sessions.Load(ctx, next)
	if sess == nil || sess.UserIdentifier != "U" {
		t.Fatalf("session = %+v", sess)
	}

	// Replay before expiry is rejected
	rec = httptest.NewRecorder()
	out = f.resolver.RedeemTokenForSession(ctx, rec, req, "acme", token)
	if out.Success || out.ReasonCode != models.ReasonJWTInvalid {
		t.Errorf("replay outcome = %+v", out)
	}

	// After expiry the token is invalid and no session is created
	now = now.Add(301 * time.Second)
	rec = httptest.NewRecorder()
	out = f.resolver.RedeemTokenForSession(ctx, rec, req, "acme", token)
	if out.Success || out.ReasonCode != models.ReasonJWTInvalid {
		t.Errorf("expired outcome = %+v", out)
	}
	entry = f.audit.last(t)
	if entry.Outcome != models.OutcomeFailure || entry.ReasonCode != models.ReasonJWTInvalid {
		t.Errorf("audit entry = %+v", entry)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expired token must not set a session cookie")
	}
}

func TestRedeemTokenForSession_WrongCompany(t *testing.T) {
	f := newResolverFixture(t)
	token, _ := f.tokens.GenerateChatJWT("globex", "U", 300)

	out := f.resolver.RedeemTokenForSession(context.Background(), httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/acme/api/redeem_token", nil), "acme", token)
	if out.Success || out.ReasonCode != models.ReasonJWTInvalid {
		t.Errorf("outcome = %+v", out)
	}
}

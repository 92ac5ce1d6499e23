package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/httputil"
)

type stubResolver struct {
	claim models.IdentityClaim
}

func (s stubResolver) Verify(r *http.Request) models.IdentityClaim { return s.claim }

func (s stubResolver) LoginLocalUser(context.Context, http.ResponseWriter, *http.Request, string, string, string) models.AuthOutcome {
	return models.AuthOutcome{}
}

func (s stubResolver) RedeemTokenForSession(context.Context, http.ResponseWriter, *http.Request, string, string) models.AuthOutcome {
	return models.AuthOutcome{}
}

func (s stubResolver) StartExternalSession(context.Context, http.ResponseWriter, *http.Request, string, string) error {
	return nil
}

func (s stubResolver) Logout(context.Context, http.ResponseWriter, *http.Request) (*models.WebSession, error) {
	return nil, nil
}

func TestRequireIdentity(t *testing.T) {
	tests := []struct {
		name       string
		claim      models.IdentityClaim
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "verified claim reaches handler",
			claim:      models.IdentityClaim{Success: true, CompanyShortName: "acme", AuthType: models.AuthTypeAPIKey},
			wantStatus: http.StatusNoContent,
			wantCalled: true,
		},
		{
			name:       "failed claim is written back",
			claim:      models.IdentityClaim{StatusCode: http.StatusUnauthorized, ReasonCode: models.ReasonAPIKeyInvalid, ErrorMessage: "Invalid or inactive API key"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "store outage keeps its status",
			claim:      models.IdentityClaim{StatusCode: http.StatusInternalServerError, ErrorMessage: "session store unavailable"},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				claim, ok := httputil.GetIdentity(r)
				if !ok || claim.CompanyShortName != tt.claim.CompanyShortName {
					t.Errorf("GetIdentity() = %+v, %v", claim, ok)
				}
				w.WriteHeader(http.StatusNoContent)
			})

			rec := httptest.NewRecorder()
			RequireIdentity(stubResolver{claim: tt.claim})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/acme/llm_query", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if !tt.wantCalled && !strings.Contains(rec.Body.String(), tt.claim.ErrorMessage) {
				t.Errorf("body %s does not carry the resolver message", rec.Body.String())
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery(logger)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	Recovery(logger)(aborting).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	t.Error("ErrAbortHandler was swallowed")
}

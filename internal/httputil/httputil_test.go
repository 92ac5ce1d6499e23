package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusUnauthorized, "token expired", map[string]interface{}{
		"reason_code": "JWT_INVALID",
		"status":      999,
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["reason_code"] != "JWT_INVALID" || body["detail"] != "token expired" {
		t.Errorf("body = %v", body)
	}
	if body["status"] != float64(http.StatusUnauthorized) {
		t.Errorf("extras must not override status: %v", body["status"])
	}
	if body["title"] != "Unauthorized" {
		t.Errorf("title = %v", body["title"])
	}
}

func TestNewProblem_UnknownStatus(t *testing.T) {
	if p := NewProblem(http.StatusTeapot, ""); p.Type != "about:blank" {
		t.Errorf("type = %q", p.Type)
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"token": "abc"}`},
		{name: "unknown fields accepted", body: `{"token": "abc", "extra": 1}`},
		{name: "malformed", body: `{"token": `, wantErr: true},
		{name: "trailing data", body: `{"token": "a"} {"token": "b"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dest struct {
				Token string `json:"token"`
			}
			err := ParseJSON(httptest.NewRecorder(), r, &dest)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && dest.Token != "abc" {
				t.Errorf("token = %q", dest.Token)
			}
		})
	}
}

func TestParseJSON_TooLarge(t *testing.T) {
	body := `{"token": "` + strings.Repeat("a", MaxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dest map[string]string
	if err := ParseJSON(httptest.NewRecorder(), r, &dest); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("error = %v, want ErrBodyTooLarge", err)
	}
}

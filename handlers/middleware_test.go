package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"boqwizard/services"
)

func TestGetSession_FromContext(t *testing.T) {
	expected := &services.Session{Token: "abc", ReferenceNumber: "BOQ-25-26-001"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), SessionKey, expected))

	got := GetSession(req)
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.ReferenceNumber != expected.ReferenceNumber {
		t.Errorf("expected reference %q, got %q", expected.ReferenceNumber, got.ReferenceNumber)
	}
}

func TestGetSession_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetSession(req); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSessionMiddleware(t *testing.T) {
	d := newTestDeps(t, nil)
	sess := newWizardSession(t, d)

	tests := []struct {
		name        string
		cookie      string
		wantSession bool
		wantCleared bool
	}{
		{"valid token", sess.Token, true, false},
		{"unknown token", "3f1c9a52-8f0e-4c55-9d7e-0a4b1f6b2c11", false, true},
		{"malformed token", "not-a-uuid", false, true},
		{"no cookie", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/wizard", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(d.App, req, rec)

			if err := SessionMiddleware(d)(e); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}

			got := GetSession(e.Request)
			if (got != nil) != tt.wantSession {
				t.Fatalf("expected session present=%v, got %v", tt.wantSession, got != nil)
			}
			if got != nil && got.Token != sess.Token {
				t.Errorf("expected token %q, got %q", sess.Token, got.Token)
			}

			cleared := false
			for _, c := range rec.Result().Cookies() {
				if c.Name == SessionCookie && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("expected cookie cleared=%v, got %v", tt.wantCleared, cleared)
			}
		})
	}
}

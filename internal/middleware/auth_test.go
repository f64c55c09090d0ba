package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	a := NewAuthenticator([]byte("secret"))
	token, err := a.SignToken(42, KindClient, "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}

	var got *Claims
	h := a.WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatalf("expected claims in context")
	}
	if got.UID != 42 || got.Kind != KindClient || got.SID != "sess-1" {
		t.Fatalf("claims = %+v", got)
	}
}

func TestWithAuthIgnoresBadTokens(t *testing.T) {
	a := NewAuthenticator([]byte("secret"))
	other := NewAuthenticator([]byte("other"))
	token, _ := other.SignToken(1, KindAdmin, "s", time.Hour)

	called := false
	h := a.WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := ClaimsFromContext(r.Context()); ok {
			t.Fatalf("foreign token must not attach claims")
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatalf("request must pass through")
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdminRejectsClients(t *testing.T) {
	a := NewAuthenticator([]byte("secret"))
	token, _ := a.SignToken(7, KindClient, "s", time.Hour)

	h := a.WithAuth(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for client tokens")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestExpiredTokenNotAccepted(t *testing.T) {
	a := NewAuthenticator([]byte("secret"))
	token, _ := a.SignToken(7, KindAdmin, "s", -time.Minute)

	h := a.WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for expired tokens")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

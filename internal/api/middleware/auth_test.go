package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "alice",
		"name": "Alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	identity, err := m.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if identity.ID != "alice" || identity.Name != "Alice" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "alice"})

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected error for token signed with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyRequiresSubject(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"name": "Alice"})

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected error for token without subject")
	}
}

func authProbe(t *testing.T) (http.Handler, *models.Identity) {
	t.Helper()
	var seen models.Identity
	m := NewAuthMiddleware(testSecret)
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		seen = identity
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seen
}

func TestRequireAuthBearerHeader(t *testing.T) {
	handler, seen := authProbe(t)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "alice", "name": "Alice"})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen.ID != "alice" {
		t.Fatalf("unexpected identity %+v", *seen)
	}
}

func TestRequireAuthQueryFallback(t *testing.T) {
	handler, seen := authProbe(t)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "bob"})

	// Websocket upgrades cannot set headers from a browser.
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen.ID != "bob" {
		t.Fatalf("unexpected identity %+v", *seen)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthGarbageToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

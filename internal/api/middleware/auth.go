package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware verifies the bearer token issued by the marketplace's auth
// service. This service never mints tokens; every operation downstream of
// RequireAuth can assume a verified user identity.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates an auth middleware for the shared HS256 secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// RequireAuth rejects requests without a valid token and stores the identity
// in the request context. Browsers cannot set headers on websocket upgrades,
// so a token query parameter is accepted as a fallback there.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := m.Verify(token)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Verify parses and validates a token, returning the embedded identity.
func (m *AuthMiddleware) Verify(tokenString string) (models.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, fmt.Errorf("parse token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.Identity{}, fmt.Errorf("token has no subject")
	}
	name, _ := claims["name"].(string)

	return models.Identity{ID: sub, Name: name}, nil
}

// IdentityFromContext retrieves the verified identity stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
